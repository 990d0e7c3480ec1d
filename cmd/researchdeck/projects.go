package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/smallnest/researchdeck/export"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/spf13/cobra"
)

func newListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored projects, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.loadStorage()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, closer, err := projectStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()

			summaries, err := st.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTOPIC\tSLIDES\tUPDATED")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Topic, s.Objectives, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newRegenerateCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <project-id> <objective-id>",
		Short: "Rebuild the slide assets of one completed objective",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			runner, err := a.runner(ctx)
			if err != nil {
				return err
			}
			st, closer, err := projectStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()

			p, err := st.Load(ctx, args[0])
			if err != nil {
				return err
			}
			obj, regenErr := runner.RegenerateProject(ctx, p, args[1])
			if errors.Is(regenErr, research.ErrObjectiveNotFound) || errors.Is(regenErr, research.ErrObjectiveNotCompleted) {
				return regenErr
			}
			// Assets are cleared even when regeneration fails.
			if err := st.Save(ctx, p); err != nil {
				return fmt.Errorf("save project: %w", err)
			}
			if regenErr != nil {
				return regenErr
			}
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render(obj.Title), styleStatus(obj.Status).Render("regenerated"))
			if obj.QualityAudit != nil {
				fmt.Fprintf(out, "  audit: %d/100 (%s risk)\n", obj.QualityAudit.AuthenticityScore, obj.QualityAudit.HallucinationRisk)
			}
			return nil
		},
	}
}

func newExportCmd(root *rootFlags) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Write the zip bundle of a stored project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.loadStorage()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, closer, err := projectStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()

			p, err := st.Load(ctx, args[0])
			if err != nil {
				return err
			}
			path, err := writeBundle(export.New(export.WithLogger(log.Named(a.logger, "export"))), p, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bundle written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory the bundle is written to")
	return cmd
}
