package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"vatcompanion/internal/session"
	"vatcompanion/internal/tui"
)

func cmdChat(g *globals) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Start the interactive question answering UI (default)",
		Action: func(ctx context.Context, c *cli.Command) error {
			log, err := g.logger(true)
			if err != nil {
				return err
			}
			var cl closers
			defer cl.Close()

			a, err := buildApp(ctx, g.cfg, log, &cl)
			if err != nil {
				return err
			}

			m := tui.New(a.svc, tui.Config{
				Theme:       session.Theme(g.cfg.UI.Theme),
				HistorySize: g.cfg.UI.HistorySize,
				ExportPath:  g.cfg.UI.ExportPath,
				Summary:     a.summary,
				Logger:      log,
			})
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return goerr.Wrap(err, "ui terminated")
			}
			return nil
		},
	}
}
