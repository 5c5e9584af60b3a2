package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/secgest/internal/rag"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed filings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	addAnswerFlags(cmd)
	cmd.Flags().Bool("stream", false, "Print the answer as it is generated")
	return cmd
}

func addAnswerFlags(cmd *cobra.Command) {
	cmd.Flags().Int("top-k", 0, "Chunks to retrieve (default SECGEST_TOP_K)")
	cmd.Flags().Int("context-window", 0, "Token budget for retrieved text (default SECGEST_CONTEXT_WINDOW_TOKENS)")
	cmd.Flags().Float32("temperature", -1, "Sampling temperature (default SECGEST_TEMPERATURE)")
	cmd.Flags().Int("max-tokens", 0, "Answer length limit (default SECGEST_MAX_TOKENS)")
	cmd.Flags().Bool("html", false, "Render the answer as HTML")
}

func answerParams(cmd *cobra.Command, defaults rag.Params) rag.Params {
	p := defaults
	if n, _ := cmd.Flags().GetInt("top-k"); n > 0 {
		p.TopK = n
	}
	if n, _ := cmd.Flags().GetInt("context-window"); n > 0 {
		p.ContextWindow = n
	}
	if t, _ := cmd.Flags().GetFloat32("temperature"); t >= 0 {
		p.Temperature = t
	}
	if n, _ := cmd.Flags().GetInt("max-tokens"); n > 0 {
		p.MaxTokens = n
	}
	return p
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := newLogger(os.Stderr, cfg)
	ctx := context.Background()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.Join(args, " ")
	params := answerParams(cmd, a.answerer.Defaults())
	out := cmd.OutOrStdout()

	if stream, _ := cmd.Flags().GetBool("stream"); stream {
		err := a.answerer.AnswerStream(ctx, question, params, nil, func(delta string) error {
			_, err := io.WriteString(out, delta)
			return err
		})
		fmt.Fprintln(out)
		return err
	}

	ans, err := a.answerer.Answer(ctx, question, params)
	if err != nil {
		return err
	}
	return printAnswer(cmd, out, ans.Text)
}

func printAnswer(cmd *cobra.Command, out io.Writer, text string) error {
	if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
		html, err := rag.RenderHTML(text)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, html)
		return err
	}
	_, err := fmt.Fprintln(out, text)
	return err
}
