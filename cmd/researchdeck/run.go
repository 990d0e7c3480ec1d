package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallnest/researchdeck/export"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/spf13/cobra"
)

func newRunCmd(root *rootFlags) *cobra.Command {
	var (
		outDir   string
		slides   string
		noBundle bool
	)
	cmd := &cobra.Command{
		Use:   "run [topic]",
		Short: "Run the full pipeline for a topic and write the project bundle",
		Example: `  researchdeck run "The future of solid-state batteries"
  researchdeck run --slides slides.json "Quarterly review"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" && slides == "" {
				return errors.New("a topic or --slides file is required")
			}

			a, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			runner, err := a.runner(ctx, newProgressPrinter(out))
			if err != nil {
				return err
			}
			st, closer, err := projectStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer closer.Close()

			var p *research.Project
			if slides != "" {
				inputs, err := readSlides(slides)
				if err != nil {
					return err
				}
				p, err = runner.GenerateSlides(ctx, topic, inputs)
				if err != nil {
					return err
				}
			} else {
				p, err = runner.Run(ctx, topic)
				if err != nil {
					return err
				}
			}

			if err := st.Save(ctx, p); err != nil {
				return fmt.Errorf("save project: %w", err)
			}
			printSummary(out, p)

			if noBundle {
				return nil
			}
			path, err := writeBundle(export.New(export.WithLogger(log.Named(a.logger, "export"))), p, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nBundle written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory the bundle is written to")
	cmd.Flags().StringVar(&slides, "slides", "", "JSON file of pre-researched slides ([{title, findings}])")
	cmd.Flags().BoolVar(&noBundle, "no-bundle", false, "skip writing the zip bundle")
	return cmd
}

func readSlides(path string) ([]research.SlideInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slides: %w", err)
	}
	var inputs []research.SlideInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse slides %s: %w", path, err)
	}
	return inputs, nil
}

func writeBundle(e *export.Exporter, p *research.Project, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, e.BundleName(p))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}
	if err := e.WriteBundle(f, p); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
