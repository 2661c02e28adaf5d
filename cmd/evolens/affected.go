package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"evolens/internal/engine"
	"evolens/internal/model"
)

func affectedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "affected <record>",
		Short: "List every entity an affinity record affects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.engine()
			if err != nil {
				return err
			}
			record, err := findRecord(eng, args[0])
			if err != nil {
				return err
			}
			return renderAffected(cmd.OutOrStdout(), eng, record)
		},
	}
}

func checkCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <record> <entity>",
		Short: "Check whether an entity is affected by an affinity record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.engine()
			if err != nil {
				return err
			}
			record, err := findRecord(eng, args[0])
			if err != nil {
				return err
			}
			entity, err := findEntity(eng, args[1])
			if err != nil {
				return err
			}
			verdict := "not affected"
			if eng.IsAffected(entity, record.Ref) {
				verdict = "affected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s by %s\n", eng.DisplayName(entity), verdict, record.Name)
			return nil
		},
	}
}

func renderAffected(out io.Writer, eng *engine.Engine, record *model.AffinityRecord) error {
	evidence := eng.Evidence(record.Ref)
	affected := eng.AffectedSet(record.Ref)

	fmt.Fprintf(out, "%s (%s)\n", record.Name, record.Identifier)
	if len(affected) == 0 {
		fmt.Fprintln(out, "No affected entities.")
		return nil
	}
	for _, ref := range affected.Sorted() {
		fmt.Fprintf(out, "  %-10s %-16s %-20s %s\n",
			ref.Kind, eng.Identifier(ref), eng.DisplayName(ref), strings.Join(sourcesOf(evidence, ref), ", "))
	}
	return nil
}

func sourcesOf(evidence model.EvidenceSet, ref model.EntityRef) []string {
	var sources []string
	if evidence.Declared.Has(ref) {
		sources = append(sources, "declared")
	}
	if evidence.Captured.Has(ref) {
		sources = append(sources, "captured")
	}
	if evidence.Scanned.Has(ref) {
		sources = append(sources, "scanned")
	}
	return sources
}

func findRecord(eng *engine.Engine, name string) (*model.AffinityRecord, error) {
	record, ok := eng.FindRecord(name)
	if !ok {
		return nil, fmt.Errorf("record not found: %s", name)
	}
	return record, nil
}

func findEntity(eng *engine.Engine, identifier string) (model.EntityRef, error) {
	ref, ok := eng.Lookup(identifier)
	if !ok || ref.Kind == model.KindAffinityRecord {
		return model.EntityRef{}, fmt.Errorf("entity not found: %s", identifier)
	}
	return ref, nil
}
