package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viant/routegate"
)

const envPrefix = "ROUTEGATE"

type rootOptions struct {
	configFile string
	envFile    string
	stateDir   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "routegate",
		Short: "Gate and route requests to workflows",
		Long: `routegate detects the intent of a request, checks it against hard
constraints and value alignment rules, and either blocks it, defers it,
parks it for founder approval or runs the matching workflow.

Approvals and budget ledgers are kept under the state directory so that
separate invocations share them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), opts.logLevel)
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with provider API keys")
	flags.StringVar(&opts.stateDir, "state-dir", ".routegate", "directory for approvals and budget ledgers")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newRouteCmd(opts))
	cmd.AddCommand(newApprovalsCmd(opts))
	cmd.AddCommand(newBudgetCmd(opts))
	cmd.AddCommand(newHealthCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return cmd
}

func setupLogging(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
	return nil
}

// loadConfig merges built-in defaults, the config file and ROUTEGATE_* env.
func loadConfig(opts *rootOptions) (*routegate.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %v: %w", opts.envFile, err)
		}
	}
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"primary", "approval.storeURL", "budget.storeURL", "reflection.sqlitePath", "reflection.retention"} {
		_ = v.BindEnv(key)
	}
	if opts.configFile != "" {
		v.SetConfigFile(opts.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	cfg := routegate.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if opts.stateDir != "" {
		if cfg.Approval.StoreURL == "" {
			cfg.Approval.StoreURL = filepath.Join(opts.stateDir, "approvals")
		}
		if cfg.Budget.StoreURL == "" {
			cfg.Budget.StoreURL = filepath.Join(opts.stateDir, "budget")
		}
	}
	return cfg, cfg.Validate()
}

func newService(opts *rootOptions) (*routegate.Service, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return routegate.New(routegate.WithConfig(cfg), routegate.WithLogger(log.Logger))
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
