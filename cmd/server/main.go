package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wardenbot/warden/internal/server"
	"github.com/wardenbot/warden/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "warden-server",
	Short:   "Warden Admin API Server",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var config server.Config
		if err := viper.Unmarshal(&config); err != nil {
			return fmt.Errorf("config unmarshal: %w", err)
		}

		// all good now, show header
		cmd.SilenceUsage = true
		showHeader()

		s, err := server.New(&config)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return s.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	rootCmd.Flags().StringP("db", "d", server.DefaultDBPath, "Path to the SQLite database")
	rootCmd.Flags().String("cert", "", "Path to the TLS certificate file")
	rootCmd.Flags().String("key", "", "Path to the TLS key file")
	rootCmd.Flags().String("bot-url", "", "Bot internal endpoint for reload webhooks")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Warden config file")
}

func main() {
	// Setup logger
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// local .env is optional
	_ = godotenv.Load()

	// config path
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)

		if err := viper.ReadInConfig(); err != nil {
			enoent := errors.Is(err, os.ErrNotExist)
			_, notFound := err.(viper.ConfigFileNotFoundError)
			if !enoent && !notFound {
				return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
			}
		}
	}

	// Bind flags to viper
	viper.BindPFlag("http.addr", cmd.Flags().Lookup("bind"))
	viper.BindPFlag("http.cert_file", cmd.Flags().Lookup("cert"))
	viper.BindPFlag("http.key_file", cmd.Flags().Lookup("key"))
	viper.BindPFlag("database.path", cmd.Flags().Lookup("db"))
	viper.BindPFlag("bot.url", cmd.Flags().Lookup("bot-url"))

	// Set up environment variables, e.g. WARDEN_AUTH_ADMIN_KEY
	viper.SetEnvPrefix("WARDEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return nil
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).
		Printf("%s\n", version.DetailedWithApp())
}
