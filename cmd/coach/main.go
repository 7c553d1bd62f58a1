package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/coach/cmd/coach/cmds"
	"github.com/go-go-golems/coach/pkg/logging"
	"github.com/go-go-golems/coach/pkg/settings"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "coach is a terminal client for a supportive mental coach",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		cobra.CheckErr(logging.InitLoggerFromViper(viper.GetViper()))
	},
	Args: cobra.NoArgs,
	RunE: cmds.RunChat,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	logging.AddLoggingFlags(rootCmd)
	settings.AddFlags(rootCmd)

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--"+settings.KeyConfig && len(os.Args) > idx+1 {
			configFile = os.Args[idx+1]
		}
	}

	err := settings.InitViper(viper.GetViper(), rootCmd, configFile)
	cobra.CheckErr(err)

	// picks up log settings from the config file and environment; flags are
	// applied once cobra has parsed them
	cobra.CheckErr(logging.InitLoggerFromViper(viper.GetViper()))

	rootCmd.AddCommand(cmds.NewChatCommand())
	rootCmd.AddCommand(cmds.NewVersionCommand(version))
}
