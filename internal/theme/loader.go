package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no source has the requested theme.
var ErrNotFound = errors.New("theme not found")

// Loader resolves chart themes by name. A name is tried as a file path
// first, then as <name>.theme in ConfigDir, SystemDir and finally the
// themes built into the binary, so user files can shadow "dark" and "light".
type Loader struct {
	ConfigDir string
	SystemDir string
}

// NewLoader returns a Loader over ~/.config/chartink/themes and
// /usr/share/chartink/themes.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "chartink", "themes"),
		SystemDir: "/usr/share/chartink/themes",
	}
}

type source struct {
	name string
	fsys fs.FS
}

func (l *Loader) sources() []source {
	var out []source
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir != "" {
			out = append(out, source{dir, os.DirFS(dir)})
		}
	}
	if sub, err := fs.Sub(EmbeddedThemes, "defaults"); err == nil {
		out = append(out, source{"built-in", sub})
	}
	return out
}

// Load returns the named theme. An empty name or "default" yields Default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" || strings.EqualFold(name, "default") {
		return Default(), nil
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".theme") {
		if th, err := parseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name)); !errors.Is(err, fs.ErrNotExist) {
			return th, err
		}
	}

	file := strings.TrimSuffix(filepath.Base(name), ".theme") + ".theme"
	for _, src := range l.sources() {
		th, err := parseFile(src.fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s theme %s: %w", src.name, file, err)
		}
		return th, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func parseFile(fsys fs.FS, file string) (*Theme, error) {
	f, err := fsys.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
