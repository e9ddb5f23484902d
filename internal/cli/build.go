package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"vatcompanion/internal/chunker"
	"vatcompanion/internal/corpus"
	"vatcompanion/internal/service"
)

func cmdBuild(g *globals) *cli.Command {
	var label string
	var out string

	return &cli.Command{
		Name:      "build",
		Usage:     "Chunk raw legal text into articles and clauses, embed them and write a JSONL corpus",
		ArgsUsage: "<file.txt|glob>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "label",
				Aliases:     []string{"l"},
				Usage:       "Source label for every chunk, e.g. VAT_Decree_Law_2017 (default: file name)",
				Destination: &label,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "Output JSONL path",
				Value:       "corpus.jsonl",
				Destination: &out,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("usage: vatcompanion build [--label L] [--out corpus.jsonl] <file.txt>...")
			}
			log, err := g.logger(false)
			if err != nil {
				return err
			}
			var cl closers
			defer cl.Close()

			emb, err := buildEmbedder(ctx, g.cfg, embedDocuments, &cl)
			if err != nil {
				return err
			}
			svc := service.NewRAGService(emb, nil, nil, service.WithLogger(log))
			ch := chunker.NewArticleChunker(g.cfg.Chunker.SentencesPerChunk, g.cfg.Chunker.OverlapSentences)
			chunks, err := svc.BuildCorpus(ctx, ch, paths, label)
			if err != nil {
				return err
			}

			rows := make([]corpus.Row, len(chunks))
			for i, chunk := range chunks {
				rows[i] = corpus.RowFromChunk(chunk)
			}
			f, err := os.Create(out)
			if err != nil {
				return goerr.Wrap(err, "failed to create corpus file", goerr.V("path", out))
			}
			defer f.Close()
			w := bufio.NewWriter(f)
			if err := corpus.EncodeJSONL(w, rows); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return goerr.Wrap(err, "failed to write corpus file", goerr.V("path", out))
			}
			color.New(color.FgGreen).Fprintf(os.Stdout, "wrote %d chunks to %s\n", len(rows), out)
			return nil
		},
	}
}
