package notes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
)

// Opener shows a note in the application.
type Opener interface {
	Open(vault, file string) error
}

// URIOpener opens notes through the application's URI handler with
// xdg-open, e.g. obsidian://open?vault=Personal&file=notes%2Fquick%2F2023-01-05.md.
type URIOpener struct {
	Scheme string
}

func (o URIOpener) Open(vault, file string) error {
	uri := o.URI(vault, file)
	if err := exec.Command("xdg-open", uri).Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", uri, err)
	}
	return nil
}

// URI builds the open URI for a note.
func (o URIOpener) URI(vault, file string) string {
	scheme := o.Scheme
	if scheme == "" {
		scheme = "obsidian"
	}
	return fmt.Sprintf("%s://open?vault=%s&file=%s", scheme, escape(vault), escape(file))
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Creator materializes quick notes inside a vault directory.
type Creator struct {
	VaultPath string
	Vault     string
	Clock     clockwork.Clock
	Opener    Opener
	Logger    *slog.Logger
}

// Create writes an empty note at Path(folder, pattern, now) unless it
// already exists and opens it. It returns the vault-relative file name.
func (c *Creator) Create(folder, pattern string) (string, error) {
	clock := c.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if c.VaultPath == "" {
		return "", errors.New("vault path not configured")
	}

	file := Path(folder, pattern, clock.Now()) + ".md"
	full := filepath.Join(c.VaultPath, filepath.FromSlash(file))
	if rel, err := filepath.Rel(c.VaultPath, full); err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("note %s is outside the vault", file)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create note folder: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	switch {
	case err == nil:
		f.Close()
		if c.Logger != nil {
			c.Logger.Info("created quick note", "file", file)
		}
	case errors.Is(err, os.ErrExist):
	default:
		return "", fmt.Errorf("failed to create note %s: %w", file, err)
	}

	if c.Opener != nil {
		if err := c.Opener.Open(c.Vault, file); err != nil {
			return file, err
		}
	}
	return file, nil
}
