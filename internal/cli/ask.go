package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/service"
	"vatcompanion/internal/session"
)

func cmdAsk(g *globals) *cli.Command {
	var topK int
	var sourcesOnly bool
	var output string

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer one question and exit",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "top-k",
				Aliases:     []string{"k"},
				Usage:       "Number of passages to retrieve (default from config)",
				Destination: &topK,
			},
			&cli.BoolFlag{
				Name:        "sources-only",
				Usage:       "Print the retrieved passages without calling the language model",
				Destination: &sourcesOnly,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Also write the answer to this file",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.Wrap(service.ErrEmptyQuestion, "usage: vatcompanion ask <question>")
			}
			log, err := g.logger(false)
			if err != nil {
				return err
			}
			var cl closers
			defer cl.Close()

			if topK > 0 {
				g.cfg.Retrieval.TopK = topK
			}
			a, err := buildApp(ctx, g.cfg, log, &cl)
			if err != nil {
				return err
			}

			if sourcesOnly {
				results, err := a.svc.Retrieve(ctx, question, 0)
				if err != nil {
					return err
				}
				printSources(os.Stdout, results)
				return nil
			}

			sess, ans, err := a.svc.Ask(ctx, session.New(session.Theme(g.cfg.UI.Theme)), question)
			if err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Fprintln(os.Stdout, "✅ Here's your answer:")
			fmt.Fprintln(os.Stdout, ans.Text)
			fmt.Fprintln(os.Stdout)
			printSources(os.Stdout, ans.Sources)

			if output != "" {
				if err := sess.Export(output); err != nil {
					return err
				}
				color.New(color.FgCyan).Fprintf(os.Stdout, "⬇️ Saved answer to %s\n", output)
			}
			return nil
		},
	}
}

func printSources(w io.Writer, results []domain.RankedResult) {
	head := color.New(color.FgYellow, color.Bold)
	dim := color.New(color.Faint)
	head.Fprintf(w, "📚 Sources (%d)\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "%2d. ", r.Rank)
		head.Fprint(w, r.Chunk.Reference())
		dim.Fprintf(w, "  score=%.3f\n", r.Score)
		fmt.Fprintf(w, "    %s\n", truncateRunes(r.Chunk.Text, 240))
	}
}

// truncateRunes cuts s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
