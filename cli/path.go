package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/nova/pkg"
)

// baseConfig is the base name of the configuration files. The Nova-language
// file has no extension; the JSON and TOML variants append one.
const baseConfig = "config"

var defaultDirMode os.FileMode = 0o700

// basePrefix returns the name of the per-user configuration and cache
// subdirectories.
//
// It is the base name of the executable without extension, except:
//   - "__debug_bin" (default output of the dlv debugger) becomes [pkg.Name]
//   - leading dots are removed
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))

		id = regexp.MustCompile(`^__debug_bin\d*$`).ReplaceAllString(id, pkg.Name)
		id = regexp.MustCompile(`^\.+`).ReplaceAllString(id, "")

		if id == "" {
			id = pkg.Name
		}

		return id
	},
)

// userDir joins basePrefix onto the directory returned by base. If base
// fails, it falls back to fallback under the home directory and then to the
// working directory.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

// configDir returns the directory holding configuration files.
var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// cacheDir returns the directory holding REPL history and profiles.
var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// configPath joins elem onto [configDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
