package main

import (
	"context"

	"github.com/spf13/cobra"

	"evolens/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			eng, err := opts.engine()
			if err != nil {
				return err
			}

			server := mcp.NewServer(eng, version)
			return server.Run(ctx, &sdk.StdioTransport{})
		},
	}
}
