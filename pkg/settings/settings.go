package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/coach/pkg/conversation"
	"github.com/go-go-golems/coach/pkg/replyclient"
	"github.com/go-go-golems/coach/pkg/security"
	"github.com/go-go-golems/coach/pkg/session"
)

const (
	EnvPrefix = "coach"

	KeyConfig          = "config"
	KeyAPIURL          = "api-url"
	KeyAllowRemoteHTTP = "allow-remote-http"
	KeyGreeting        = "greeting"
	KeyFallbackText    = "fallback-text"
	KeyPlain           = "plain"
	KeyExportDir       = "export-dir"
	KeyExportFormat    = "export-format"
)

// Settings is the typed view of everything the chat command reads from
// flags, environment, .env and config file.
type Settings struct {
	APIURL          string                    `yaml:"api-url"`
	AllowRemoteHTTP bool                      `yaml:"allow-remote-http"`
	Greeting        string                    `yaml:"greeting"`
	FallbackText    string                    `yaml:"fallback-text"`
	Plain           bool                      `yaml:"plain"`
	ExportDir       string                    `yaml:"export-dir"`
	ExportFormat    conversation.ExportFormat `yaml:"export-format"`
}

func Defaults() *Settings {
	return &Settings{
		APIURL:       replyclient.DefaultBaseURL,
		Greeting:     conversation.DefaultGreeting,
		FallbackText: session.DefaultFallbackText,
		ExportDir:    ".",
		ExportFormat: conversation.ExportFormatYAML,
	}
}

// AddFlags registers the session flags as persistent flags on cmd.
func AddFlags(cmd *cobra.Command) {
	d := Defaults()
	fs := cmd.PersistentFlags()
	fs.String(KeyConfig, "", "Path to config file (default ./coach.yaml, ~/.coach/config.yaml)")
	fs.String(KeyAPIURL, d.APIURL, "Base URL of the reply service")
	fs.Bool(KeyAllowRemoteHTTP, false, "Allow a plain http reply service outside the local network")
	fs.String(KeyGreeting, d.Greeting, "Greeting shown as the first coach message")
	fs.String(KeyFallbackText, d.FallbackText, "Message shown when the reply service fails")
	fs.Bool(KeyPlain, false, "Use the line-oriented interface even on a terminal")
	fs.String(KeyExportDir, d.ExportDir, "Directory transcripts are exported to")
	fs.String(KeyExportFormat, string(d.ExportFormat), "Transcript export format (yaml, json)")
}

// InitViper loads .env files, the config file and the environment into v, then
// binds cmd's persistent flags. Flags win over the environment, which wins over
// .env files, which win over the config file.
//
// A missing config file is not an error; a missing explicit configPath is.
func InitViper(v *viper.Viper, cmd *cobra.Command, configPath string, dotenvFiles ...string) error {
	if err := LoadDotenv(dotenvFiles...); err != nil {
		return err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("coach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".coach"))
		}
		if xdg, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(xdg, "coach"))
		}
	}

	err := v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// no config file, flags and env only
	} else if err != nil {
		return errors.Wrap(err, "could not read config file")
	}

	if cmd != nil {
		if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
			return errors.Wrap(err, "could not bind flags")
		}
	}

	log.Debug().Str("config", v.ConfigFileUsed()).Msg("Loaded configuration")

	return nil
}

// LoadDotenv loads the given files, or ./.env when none are given. Variables
// already set in the environment are left alone. Missing files are skipped.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "could not load %s", f)
		}
		log.Debug().Str("file", f).Msg("Loaded .env file")
	}
	return nil
}

// Load reads the typed settings out of v and validates them.
func Load(v *viper.Viper) (*Settings, error) {
	d := Defaults()
	s := &Settings{
		APIURL:          stringOr(v, KeyAPIURL, d.APIURL),
		AllowRemoteHTTP: v.GetBool(KeyAllowRemoteHTTP),
		Greeting:        stringOr(v, KeyGreeting, d.Greeting),
		FallbackText:    stringOr(v, KeyFallbackText, d.FallbackText),
		Plain:           v.GetBool(KeyPlain),
		ExportDir:       stringOr(v, KeyExportDir, d.ExportDir),
	}

	format, err := conversation.ParseExportFormat(stringOr(v, KeyExportFormat, string(d.ExportFormat)))
	if err != nil {
		return nil, err
	}
	s.ExportFormat = format

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	_, err := security.ValidateOutboundURL(s.APIURL, security.OutboundURLOptions{
		AllowRemoteHTTP: s.AllowRemoteHTTP,
	})
	if err != nil {
		return errors.Wrapf(err, "invalid %s", KeyAPIURL)
	}
	if strings.TrimSpace(s.FallbackText) == "" {
		return errors.Errorf("%s must not be empty", KeyFallbackText)
	}
	if _, err := conversation.ParseExportFormat(string(s.ExportFormat)); err != nil {
		return err
	}
	return nil
}

func stringOr(v *viper.Viper, key string, def string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return def
}
