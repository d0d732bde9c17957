package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/commerceapi/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (defaults apply when empty)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Catalog  CatalogCmd  `cmd:"" help:"Print the failure catalog"`
	Classify ClassifyCmd `cmd:"" help:"Classify an HTTP response and show the resulting failure"`
	Serve    ServeCmd    `cmd:"" help:"Serve failure replies and metrics over HTTP"`

	settings *config.Config `kong:"-"`
}

// AfterApply runs after flag parsing; loads the configuration and sets up logging once.
func (c *CLI) AfterApply() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	c.settings = cfg
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr, c.Verbose))
	return nil
}

// Settings returns the loaded configuration, or the defaults when none was loaded.
func (c *CLI) Settings() *config.Config {
	if c == nil || c.settings == nil {
		return config.Default()
	}
	return c.settings
}
