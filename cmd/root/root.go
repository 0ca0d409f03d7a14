// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/bank-movements/internal/config"
	"fjacquet/bank-movements/internal/container"

	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags every subcommand sees. Set values
// override the configuration file and environment.
type GlobalFlags struct {
	ConfigFile  string
	LogLevel    string
	LogFormat   string
	StoreDriver string
	StoreDSN    string
}

var (
	// Flags holds the parsed persistent flags.
	Flags = GlobalFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "bank-movements",
		Short: "Ingest Caixabank and Santander statements and review the expenses they contain.",
		Long: `bank-movements normalizes Caixabank and Santander spreadsheet statements into
one movement format, suggests a category for each movement and lets a reviewer
confirm expenses into the expense ledger.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Init registers the persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVar(&Flags.ConfigFile, "config", "", "config file (default searches $HOME/.bank-movements, .bank-movements and .)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&Flags.LogFormat, "log-format", "", "log format (text or json)")
	Cmd.PersistentFlags().StringVar(&Flags.StoreDriver, "store", "", "store driver (sqlite, postgres or memory)")
	Cmd.PersistentFlags().StringVar(&Flags.StoreDSN, "dsn", "", "store data source name")
}

// LoadConfig reads the configuration and applies flag overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.InitializeConfigFrom(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if Flags.LogLevel != "" {
		cfg.Log.Level = Flags.LogLevel
	}
	if Flags.LogFormat != "" {
		cfg.Log.Format = Flags.LogFormat
	}
	if Flags.StoreDriver != "" {
		cfg.Store.Driver = Flags.StoreDriver
	}
	if Flags.StoreDSN != "" {
		cfg.Store.DSN = Flags.StoreDSN
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewContainer loads the configuration and wires the application.
func NewContainer() (*container.Container, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return container.NewContainer(cfg)
}

// WithContainer runs fn against a freshly wired container and closes it.
func WithContainer(fn func(c *container.Container) error) (err error) {
	c, err := NewContainer()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}
