package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vardump/pkg/buildinfo"
	"github.com/matzehuels/vardump/pkg/cache"
	"github.com/matzehuels/vardump/pkg/dump"
	"github.com/matzehuels/vardump/pkg/kind"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "vardump"

	// svgCacheTTL is how long rendered SVGs stay in the render cache.
	svgCacheTTL = 7 * 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	cfg        *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "vardump shows nested data as collapsible trees",
		Long: `vardump renders JSON, YAML and TOML documents as collapsible var-dump trees.

Containers start collapsed and their children are built the first time they
are expanded. Trees can be browsed in the terminal, printed in several
formats, stored as snapshots or served to a browser.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configFile)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/vardump/config.toml)")

	root.AddCommand(c.viewCommand())
	root.AddCommand(c.printCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded configuration, or defaults when commands run
// without the root pre-run.
func (c *CLI) config() *Config {
	if c.cfg == nil {
		c.cfg = defaultConfig()
	}
	return c.cfg
}

// =============================================================================
// Dumper Factory
// =============================================================================

// newRegistry returns the builtin kinds with UUIDs rendered in canonical
// form ahead of the generic sequence kind. Snapshot metadata shown by
// `snapshot show --meta` carries a uuid.UUID.
func newRegistry() (*kind.Registry, error) {
	reg, err := kind.NewRegistry(kind.Builtins()...)
	if err != nil {
		return nil, err
	}
	if err := reg.Insert(kind.NameSequence, kind.UUID); err != nil {
		return nil, err
	}
	return reg, nil
}

// newDumper creates a dumper logging through the CLI logger.
func (c *CLI) newDumper() (*dump.Dumper, error) {
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	return dump.New(reg, dump.WithLogger(c.Logger)), nil
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return c
}
