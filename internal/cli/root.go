// Package cli implements the driver command-line interface: schema download,
// offline record entry against the cached schema, and record upload.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/logging"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// app is the state shared by the commands of one invocation. It is filled
// in by the root command's PersistentPreRunE.
type app struct {
	flags   rootFlags
	cfg     *viper.Viper
	logger  *slog.Logger
	dataDir string
}

// NewRootCmd creates the top-level "driver" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "driver",
		Short: "Collect accident records offline and upload them to DRIVER",
		Long: `driver downloads the accident record schema from a DRIVER server,
stores records entered against it in a local database and uploads them
when a connection is available.`,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (env "+paths.EnvDataDir+")")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newSchemaCmd())
	root.AddCommand(a.newRecordCmd())
	root.AddCommand(a.newUploadCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// setup loads .env and config.yaml, builds the logger and resolves the data
// directory.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if a.flags.logLevel != "" {
		cfg.Set(cfgKeyLogLevel, a.flags.logLevel)
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.GetString(cfgKeyLogLevel)))
	slog.SetDefault(a.logger)

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	a.dataDir = dataDir
	a.logger.Debug("configured", slog.String("config_dir", configDir), slog.String("data_dir", dataDir))
	return nil
}
