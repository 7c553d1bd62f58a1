package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/coach/pkg/echoserver"
	"github.com/go-go-golems/coach/pkg/logging"
	"github.com/go-go-golems/coach/pkg/settings"
)

var rootCmd = &cobra.Command{
	Use:   "echo-reply-server",
	Short: "Development reply service that echoes every message back",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitLoggerFromViper(viper.GetViper())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		h := echoserver.New()
		if prefix := viper.GetString("prefix"); prefix != "" {
			h.Prefix = prefix
		}

		return echoserver.Run(ctx, listenAddr(), echoserver.NewRouter(h))
	},
}

// listenAddr honours --addr, then PORT as set by most hosting platforms.
func listenAddr() string {
	if addr := viper.GetString("addr"); addr != "" {
		return addr
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return ":" + port
	}
	return echoserver.DefaultAddr
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	logging.AddLoggingFlags(rootCmd)
	rootCmd.PersistentFlags().String("addr", "", "Listen address (default $PORT or :8000)")
	rootCmd.PersistentFlags().String("prefix", "", "Text put in front of every echoed message")

	cobra.CheckErr(settings.LoadDotenv())

	viper.SetEnvPrefix("echo")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	cobra.CheckErr(viper.BindPFlags(rootCmd.PersistentFlags()))
}
