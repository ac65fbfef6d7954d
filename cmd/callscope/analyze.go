package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/callscope/internal/export"
	"github.com/MikeSquared-Agency/callscope/internal/processor"
)

var (
	analyzeText        string
	analyzeFile        string
	analyzeXLSX        string
	analyzeConcurrency int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one call, or a spreadsheet of transcripts, and store the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		set := 0
		for _, v := range []string{analyzeText, analyzeFile, analyzeXLSX} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return errors.New("exactly one of --text, --file or --xlsx is required")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		switch {
		case analyzeText != "":
			sub, err := a.proc.SubmitText(ctx, analyzeText)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sub)
		case analyzeFile != "":
			data, err := os.ReadFile(analyzeFile)
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}
			sub, err := a.proc.SubmitAudio(ctx, filepath.Base(analyzeFile), data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sub)
		}

		f, err := os.Open(analyzeXLSX)
		if err != nil {
			return fmt.Errorf("open workbook: %w", err)
		}
		transcripts, err := export.ReadTranscripts(f)
		f.Close()
		if err != nil {
			return err
		}

		results := make([]processor.Submission, len(transcripts))
		var succeeded, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(analyzeConcurrency, 1))
		for i, tr := range transcripts {
			g.Go(func() error {
				sub, err := a.proc.SubmitText(gctx, tr.Text)
				if err != nil {
					// storage errors abort the batch
					return fmt.Errorf("row %d: %w", tr.Row, err)
				}
				if sub.Status == processor.StatusSuccess {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}
				results[i] = sub
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		slog.Info("batch complete",
			"total", len(transcripts),
			"succeeded", succeeded.Load(),
			"failed", failed.Load(),
		)
		return printJSON(cmd.OutOrStdout(), results)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeText, "text", "", "transcript text to analyze")
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "audio file to transcribe and analyze")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "workbook whose transcript column is analyzed row by row")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 4, "rows analyzed in parallel")
	rootCmd.AddCommand(analyzeCmd)
}
