package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var opts globalOptions
	root := &cobra.Command{
		Use:   "evolens",
		Short: "Resolve affinity facts, crafting formulas and sprites from a host snapshot",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath, "Project config file")
	flags.StringVar(&opts.schemaPath, "schema", defaultSchemaPath, "Host schema file")
	flags.StringVar(&opts.snapshotPath, "snapshot", "", "Host snapshot file, overrides the config")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log resolver decisions to stderr")

	root.AddCommand(affectedCmd(&opts))
	root.AddCommand(checkCmd(&opts))
	root.AddCommand(formulasCmd(&opts))
	root.AddCommand(assetCmd(&opts))
	root.AddCommand(validateCmd(&opts))
	root.AddCommand(serveCmd(&opts))
	root.AddCommand(initCmd(&opts))
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
