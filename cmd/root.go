// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/hyperaide-sync/internal/config"
	"github.com/xkilldash9x/hyperaide-sync/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// rootOptions are the global flags.
type rootOptions struct {
	cfgFile string
	token   string
	apiURL  string
	dev     bool
	verbose bool
}

// NewRootCommand builds the command tree with production dependencies.
func NewRootCommand() *cobra.Command {
	return newRootCmd(defaultDependencies())
}

func newRootCmd(deps *dependencies) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hyperaide-sync",
		Short: "Sync your browser authentication to Hyperaide",
		Long: `Opens a clean browser window. Log in to the sites you want Hyperaide to use,
then close the window. The authentication cookies are uploaded to your account.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, opts); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}
			if opts.verbose {
				cfg.Logger.Level = "debug"
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting hyperaide-sync",
				zap.String("version", Version),
				zap.String("api", cfg.APIBaseURL()),
				zap.Bool("dev", cfg.Dev),
			)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		// Running without a subcommand syncs.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncCmd(cmd, opts, deps)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "config file (default ./config.yaml, then ~/.hyperaide-sync/config.yaml)")
	flags.StringVarP(&opts.token, "token", "t", "", "Hyperaide API key (default $HYPERAIDE_SYNC_TOKEN)")
	flags.StringVar(&opts.apiURL, "api-url", "", "override the API base URL")
	flags.BoolVar(&opts.dev, "dev", false, "use the development API and welcome page")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newSyncCmd(opts, deps))
	rootCmd.AddCommand(newStatusCmd(opts, deps))
	rootCmd.AddCommand(newResetCmd(opts, deps))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the command tree and prints any error with its hint to stderr.
// The caller decides the exit code.
func Execute(ctx context.Context) error {
	return execute(ctx, NewRootCommand())
}

func execute(ctx context.Context, rootCmd *cobra.Command) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		observability.GetLogger().Debug("Command failed", zap.Error(err))
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// initializeConfig points viper at the config file and binds the global
// flags. Flags beat environment variables, which beat the file.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, opts *rootOptions) error {
	if opts.cfgFile != "" {
		path, err := homedir.Expand(opts.cfgFile)
		if err != nil {
			return err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hyperaide-sync"))
		}
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.cfgFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	flags := cmd.Flags()
	if err := v.BindPFlag("api.url", flags.Lookup("api-url")); err != nil {
		return err
	}
	return v.BindPFlag("dev", flags.Lookup("dev"))
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
