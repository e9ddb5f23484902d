package cli

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"vatcompanion/internal/service"
)

func cmdIndex(g *globals) *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Load the corpus and push it into the configured Qdrant collection",
		Action: func(ctx context.Context, c *cli.Command) error {
			if g.cfg.VectorStore.Type != "qdrant" {
				return goerr.New("index requires vector_store.type qdrant", goerr.V("type", g.cfg.VectorStore.Type))
			}
			log, err := g.logger(false)
			if err != nil {
				return err
			}
			var cl closers
			defer cl.Close()

			store, err := loadCorpus(ctx, g.cfg, log)
			if err != nil {
				return err
			}
			st, err := buildStorage(g.cfg.VectorStore, &cl)
			if err != nil {
				return err
			}
			// indexing needs neither embedder nor generator
			svc := service.NewRAGService(nil, st, nil, service.WithLogger(log))
			if err := svc.Index(ctx, store.Chunks()); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(os.Stdout, "indexed %d chunks into %s\n",
				store.Len(), g.cfg.VectorStore.Qdrant.Collection)
			return nil
		},
	}
}
