// Package cli defines the vatcompanion command line.
package cli

import (
	"context"
	"io"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"vatcompanion/internal/config"
	"vatcompanion/internal/logger"
)

// globals holds state shared by every command after Before has run.
type globals struct {
	configPath string
	logLevel   string
	logFile    string

	cfg    *config.AppConfig
	closer io.Closer
}

func (g *globals) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML or TOML config (default ./config.yaml, then ~/.config/vatcompanion/config.yaml)",
			Sources:     cli.EnvVars("VATCOMPANION_CONFIG"),
			Destination: &g.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Sources:     cli.EnvVars("VATCOMPANION_LOG_LEVEL"),
			Destination: &g.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "Write logs to this file instead of stderr",
			Sources:     cli.EnvVars("VATCOMPANION_LOG_FILE"),
			Destination: &g.logFile,
		},
	}
}

func (g *globals) before(ctx context.Context, _ *cli.Command) (context.Context, error) {
	_ = godotenv.Load()

	var err error
	if g.configPath == "" {
		g.cfg, _, err = config.LoadDefault()
	} else {
		g.cfg, err = config.Load(g.configPath)
	}
	if err != nil {
		return ctx, goerr.Wrap(err, "failed to load config")
	}
	if g.logLevel != "" {
		g.cfg.Logging.Level = g.logLevel
	}
	if g.logFile != "" {
		g.cfg.Logging.File = g.logFile
	}
	if err := g.cfg.Validate(); err != nil {
		return ctx, goerr.Wrap(err, "invalid config")
	}
	return ctx, nil
}

func (g *globals) after(context.Context, *cli.Command) error {
	if g.closer != nil {
		return g.closer.Close()
	}
	return nil
}

// logger returns the configured logger. Interactive commands never log to the terminal.
func (g *globals) logger(interactive bool) (zerolog.Logger, error) {
	if g.cfg.Logging.File != "" || interactive {
		log, closer, err := logger.File(g.cfg.Logging.Level, g.cfg.Logging.File)
		if err != nil {
			return zerolog.Nop(), goerr.Wrap(err, "failed to open log file", goerr.V("path", g.cfg.Logging.File))
		}
		g.closer = closer
		return log, nil
	}
	return logger.Console(g.cfg.Logging.Level), nil
}

// Run parses args and executes the selected command. With no command it starts the chat UI.
func Run(ctx context.Context, args []string) error {
	g := &globals{}
	chat := cmdChat(g)

	app := &cli.Command{
		Name:   "vatcompanion",
		Usage:  "Answer UAE VAT questions from the Decree-Law and Executive Regulations",
		Flags:  g.flags(),
		Before: g.before,
		After:  g.after,
		Action: chat.Action,
		Commands: []*cli.Command{
			chat,
			cmdAsk(g),
			cmdIndex(g),
			cmdBuild(g),
			cmdInspect(g),
		},
	}
	return app.Run(ctx, args)
}
