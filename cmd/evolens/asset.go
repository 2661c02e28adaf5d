package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func assetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "asset <atlas> <frame>",
		Short: "Resolve an atlas and frame to a sprite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.engine()
			if err != nil {
				return err
			}
			asset, ok := eng.ResolveAsset(args[0], args[1])
			if !ok {
				return fmt.Errorf("no sprite for %s/%s (tried %v)", args[0], args[1], eng.AssetSteps())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", asset.Atlas, asset.Frame)
			return nil
		},
	}
}
