package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/secgest/internal/edgar"
	"github.com/dgallion1/secgest/internal/pipeline"
	"github.com/dgallion1/secgest/internal/rag"
)

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <ticker|cik> [form...]",
		Short: "Download the latest registration filings and index them",
		Long: "Downloads the latest filing of each form (default S-1, S-1/A and 424B4) " +
			"from EDGAR, then parses, embeds and stores it. With --summarize each " +
			"filing's index is asked for its major risks, financials and use of proceeds.",
		Args: cobra.MinimumNArgs(1),
		RunE: runFetch,
	}
	cmd.Flags().Bool("download-only", false, "Only save the filings, do not index them")
	cmd.Flags().Bool("summarize", false, "Ask for a pre-IPO summary after indexing")
	addAnswerFlags(cmd)
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	downloadOnly, _ := cmd.Flags().GetBool("download-only")
	if !downloadOnly {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	log := newLogger(os.Stderr, cfg)
	ctx := context.Background()

	identifier := args[0]
	forms := args[1:]
	if len(forms) == 0 {
		forms = edgar.IPOForms
	}
	out := cmd.OutOrStdout()

	if downloadOnly {
		client := edgar.NewClient(cfg.EdgarUserAgent, edgar.WithDownloadDir(cfg.DownloadDir))
		for _, form := range forms {
			doc, meta, err := client.Fetch(ctx, identifier, form)
			if err != nil {
				log.Error("fetch failed", "form", form, "error", err)
				continue
			}
			printJSON(out, map[string]any{"filing": meta, "saved_as": doc.Locator, "bytes": len(doc.Content)})
		}
		return nil
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	summarize, _ := cmd.Flags().GetBool("summarize")
	w := a.worker()
	indexed := 0
	for _, form := range forms {
		doc, meta, err := a.edgar.Fetch(ctx, identifier, form)
		if err != nil {
			log.Error("fetch failed", "form", form, "error", err)
			continue
		}
		job := pipeline.NewJob(doc, meta.Ticker)
		w.Process(ctx, job)
		snap := job.Snapshot()
		printJSON(out, snap)
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusPartial || snap.Status == pipeline.StatusDupSkipped {
			indexed++
		}
	}
	if indexed == 0 {
		return fmt.Errorf("no filings indexed for %s", identifier)
	}

	if summarize {
		ans, err := a.answerer.Answer(ctx, rag.SummaryQuestion, answerParams(cmd, a.answerer.Defaults()))
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
		return printAnswer(cmd, out, ans.Text)
	}
	return nil
}
