package conversation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type ExportFormat string

const (
	ExportFormatYAML ExportFormat = "yaml"
	ExportFormatJSON ExportFormat = "json"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return ExportFormatYAML, nil
	case "json":
		return ExportFormatJSON, nil
	default:
		return "", errors.Errorf("unknown export format %q (should be one of yaml, json)", s)
	}
}

func (f ExportFormat) Extension() string {
	if f == ExportFormatJSON {
		return ".json"
	}
	return ".yaml"
}

type exportedTranscript struct {
	SessionID  string `json:"sessionId,omitempty" yaml:"sessionId,omitempty"`
	ExportedAt string `json:"exportedAt" yaml:"exportedAt"`
	Turns      []Turn `json:"turns" yaml:"turns"`
}

// Export writes the transcript to w. Exports are write-only: nothing in this
// module reads them back into a session.
func Export(w io.Writer, sessionID string, t Transcript, format ExportFormat) error {
	doc := exportedTranscript{
		SessionID:  sessionID,
		ExportedAt: time.Now().Format(time.RFC3339),
		Turns:      t.Turns(),
	}

	switch format {
	case ExportFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(doc), "could not encode transcript as json")
	case ExportFormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "could not encode transcript as yaml")
		}
		return enc.Close()
	default:
		return errors.Errorf("unknown export format %q", format)
	}
}

// ExportToDir writes the transcript to a timestamped file in dir and returns its path.
func ExportToDir(dir string, sessionID string, t Transcript, format ExportFormat) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "could not create export directory %s", dir)
	}

	name := fmt.Sprintf("coach-%s", time.Now().Format("20060102-150405"))
	if sessionID != "" {
		name += "-" + sessionID
	}
	path := filepath.Join(dir, name+format.Extension())

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "could not create %s", path)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := Export(f, sessionID, t, format); err != nil {
		return "", err
	}

	return path, nil
}
