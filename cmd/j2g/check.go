package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loykin/j2g/internal/convert"
)

var checkCmd = &cobra.Command{
	Use:   "check <jenkinsfile>...",
	Short: "Convert Jenkinsfiles without writing output and report warnings",
	Long: `Check converts each Jenkinsfile in memory and prints its warnings:
malformed environment lines, duplicate stages, job id collisions,
unsupported post conditions and unterminated blocks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		opts, err := resolveOptions(cmd, doc)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out := cmd.OutOrStdout()

		failed := 0
		for _, path := range args {
			src, err := readSource(path, doc.MaxInputBytes())
			if err != nil {
				_, _ = fmt.Fprintf(out, "✗ %s: %v\n", path, err)
				failed++
				continue
			}
			res, err := convert.Convert(ctx, src, opts)
			if err != nil {
				_, _ = fmt.Fprintf(out, "✗ %s: %v\n", path, err)
				failed++
				continue
			}
			if !res.HasWarnings() {
				_, _ = fmt.Fprintf(out, "✓ %s: %d job(s), no warnings\n", path, len(res.Document.Jobs))
				continue
			}
			_, _ = fmt.Fprintf(out, "! %s: %d job(s), %d warning(s)\n", path, len(res.Document.Jobs), len(res.Warnings))
			for _, w := range res.Warnings {
				_, _ = fmt.Fprintf(out, "    %s\n", w.String())
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
		}
		return nil
	},
}
