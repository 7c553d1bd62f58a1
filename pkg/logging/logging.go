package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	WithCaller bool
	Level      string
	// LogFormat is "json" (default) or "text".
	LogFormat string
	LogFile   string
	// Quiet drops console output entirely; the log file, if any, still receives everything.
	// Full-screen front-ends set it so log lines do not tear the display.
	Quiet bool
}

// AddLoggingFlags registers the logging flags on cmd's persistent flag set.
func AddLoggingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error, fatal)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (json, text)")
	cmd.PersistentFlags().String("log-file", "", "Log file (default: stderr only)")
	cmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Shorthand for --log-level debug")
}

// ConfigFromViper reads the logging keys registered by AddLoggingFlags.
func ConfigFromViper(v *viper.Viper) *Config {
	logLevel := v.GetString("log-level")
	if v.GetBool("verbose") && logLevel != "trace" {
		logLevel = "debug"
	}
	return &Config{
		Level:      logLevel,
		LogFile:    v.GetString("log-file"),
		LogFormat:  v.GetString("log-format"),
		WithCaller: v.GetBool("with-caller"),
	}
}

func InitLoggerFromViper(v *viper.Viper) error {
	return InitLogger(ConfigFromViper(v))
}

func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.NoLevel, errors.Errorf("unknown log level %q", level)
	}
}

func InitLogger(config *Config) error {
	level, err := ParseLevel(config.Level)
	if err != nil {
		return err
	}

	var writers []io.Writer
	if !config.Quiet {
		// default is json
		if config.LogFormat == "text" {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	if config.LogFile != "" {
		writers = append(writers, zerolog.ConsoleWriter{
			NoColor: true,
			Out: &lumberjack.Logger{
				Filename:   config.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, //days
				Compress:   false,
			},
		})
	}

	var logWriter io.Writer
	switch len(writers) {
	case 0:
		logWriter = io.Discard
	case 1:
		logWriter = writers[0]
	default:
		logWriter = io.MultiWriter(writers...)
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	if config.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger
	zerolog.SetGlobalLevel(level)

	return nil
}
