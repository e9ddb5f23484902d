package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func cmdInspect(g *globals) *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Load the corpus and print per-source statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			log, err := g.logger(false)
			if err != nil {
				return err
			}
			store, err := loadCorpus(ctx, g.cfg, log)
			if err != nil {
				return err
			}

			head := color.New(color.Bold)
			head.Fprintf(os.Stdout, "%-28s %8s %8s  %s\n", "SOURCE", "ROWS", "DROPPED", "LOCATION")
			for _, st := range store.Stats() {
				label := st.Label
				if label == "" {
					label = "(row source)"
				}
				fmt.Fprintf(os.Stdout, "%-28s %8d %8d  %s\n", label, st.Rows, st.Dropped, st.Location)
			}
			head.Fprintf(os.Stdout, "total chunks: %d, dimension: %d\n", store.Len(), store.Dimension())
			return nil
		},
	}
}
