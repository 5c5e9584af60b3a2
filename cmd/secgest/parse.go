package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/secgest/internal/filing"
	"github.com/dgallion1/secgest/internal/parser"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a saved filing and print its chunks as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
	cmd.Flags().String("form-type", "", "Form label used when the document does not name its type (default: filename stem)")
	cmd.Flags().Bool("sections", false, "Print the located sections instead of chunks")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr, cfg)

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read filing: %w", err)
	}
	formType, _ := cmd.Flags().GetString("form-type")
	if formType == "" {
		formType = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	res, err := parser.New(log).ParseDetailed(filing.RawDocument{Locator: path, FormType: formType, Content: content})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showSections, _ := cmd.Flags().GetBool("sections"); showSections {
		type sectionSummary struct {
			Title      string `json:"title"`
			Level      int    `json:"level"`
			PageNumber int    `json:"page_number,omitempty"`
			Length     int    `json:"length"`
		}
		sections := make([]sectionSummary, len(res.Sections))
		for i, s := range res.Sections {
			sections[i] = sectionSummary{Title: s.Title, Level: s.Level, PageNumber: s.PageNumber, Length: len(s.Text)}
		}
		return printJSON(out, map[string]any{"filing_type": res.FilingType, "sections": sections})
	}
	return printJSON(out, res.Chunks)
}
