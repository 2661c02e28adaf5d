package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"evolens/internal/engine"
	"evolens/internal/model"
)

func formulasCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "formulas <entity>",
		Short: "Show the crafting formulas an entity takes part in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			eng, err := opts.engine()
			if err != nil {
				return err
			}
			ref, err := findEntity(eng, args[0])
			if err != nil {
				return err
			}
			return renderFormulas(cmd.OutOrStdout(), eng, ref, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum formulas to show, 0 for all")
	return cmd
}

// renderFormulas prints one formula per line; owned ingredients carry a *.
func renderFormulas(out io.Writer, eng *engine.Engine, ref model.EntityRef, limit int) error {
	list := eng.BuildFormulas(ref)
	fmt.Fprintf(out, "%s (%s, %s)\n", eng.DisplayName(ref), eng.Identifier(ref), eng.Classify(ref))
	if list.Count() == 0 {
		fmt.Fprintln(out, "No formulas.")
		return nil
	}

	if limit == 0 {
		limit = -1
	}
	shown, overflow := list.Head(limit)
	for _, f := range shown {
		parts := make([]string, 0, len(f.Ingredients))
		for _, in := range f.Ingredients {
			name := in.ID
			if in.Owned {
				name += "*"
			}
			parts = append(parts, name)
		}
		fmt.Fprintf(out, "  %s => %s\n", strings.Join(parts, " + "), f.ResultID)
	}
	if overflow > 0 {
		fmt.Fprintf(out, "  ... and %d more\n", overflow)
	}
	return nil
}
