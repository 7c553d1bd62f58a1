package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/coach/pkg/conversation"
	"github.com/go-go-golems/coach/pkg/replyclient"
	"github.com/go-go-golems/coach/pkg/session"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	AddFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

// unsetEnv clears key for the duration of the test, restoring it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "COACH_API_URL")
	unsetEnv(t, "COACH_GREETING")
	dir := t.TempDir()

	v := viper.New()
	cmd := newCommand(t)
	require.NoError(t, InitViper(v, cmd, "", filepath.Join(dir, "missing.env")))

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, replyclient.DefaultBaseURL, s.APIURL)
	assert.Equal(t, conversation.DefaultGreeting, s.Greeting)
	assert.Equal(t, session.DefaultFallbackText, s.FallbackText)
	assert.Equal(t, conversation.ExportFormatYAML, s.ExportFormat)
	assert.False(t, s.Plain)
}

func TestLoad_Precedence(t *testing.T) {
	unsetEnv(t, "COACH_API_URL")
	unsetEnv(t, "COACH_GREETING")
	unsetEnv(t, "COACH_EXPORT_FORMAT")
	dir := t.TempDir()

	configPath := writeFile(t, dir, "coach.yaml", `
api-url: http://localhost:1001
greeting: hello from file
export-format: json
`)
	dotenv := writeFile(t, dir, ".env", "COACH_API_URL=http://localhost:1002\nCOACH_GREETING=hello from dotenv\n")

	t.Run("dotenv over file", func(t *testing.T) {
		v := viper.New()
		require.NoError(t, InitViper(v, newCommand(t), configPath, dotenv))
		s, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:1002", s.APIURL)
		assert.Equal(t, "hello from dotenv", s.Greeting)
		assert.Equal(t, conversation.ExportFormatJSON, s.ExportFormat)
	})

	t.Run("env over dotenv", func(t *testing.T) {
		t.Setenv("COACH_API_URL", "http://localhost:1003")
		v := viper.New()
		require.NoError(t, InitViper(v, newCommand(t), configPath, dotenv))
		s, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:1003", s.APIURL)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("COACH_API_URL", "http://localhost:1003")
		v := viper.New()
		cmd := newCommand(t, "--api-url", "http://localhost:1004", "--plain")
		require.NoError(t, InitViper(v, cmd, configPath, dotenv))
		s, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:1004", s.APIURL)
		assert.True(t, s.Plain)
	})
}

func TestInitViper_MissingExplicitConfig(t *testing.T) {
	v := viper.New()
	err := InitViper(v, newCommand(t), filepath.Join(t.TempDir(), "nope.yaml"), filepath.Join(t.TempDir(), ".env"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	v.Set(KeyAPIURL, "localhost:8000")
	_, err := Load(v)
	require.Error(t, err)

	v = viper.New()
	v.Set(KeyExportFormat, "csv")
	_, err = Load(v)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	s := Defaults()
	require.NoError(t, s.Validate())

	s.FallbackText = "  "
	assert.Error(t, s.Validate())

	s = Defaults()
	s.APIURL = "https://"
	assert.Error(t, s.Validate())

	s = Defaults()
	s.APIURL = "http://coach.example.com"
	assert.Error(t, s.Validate())
	s.AllowRemoteHTTP = true
	assert.NoError(t, s.Validate())

	s = Defaults()
	s.ExportFormat = "xml"
	assert.Error(t, s.Validate())
}
