// Package di wires the application's collaborators together so the
// CLI layer can pull them from one place and tests can substitute
// fakes.
package di

import (
	"fmt"
	"io"
	"log"
	"os"

	"dconfsync.dev/cli/internal/core/store"
	"dconfsync.dev/cli/internal/infrastructure/config"
	"dconfsync.dev/cli/internal/infrastructure/dconf"
)

// Container holds process-wide collaborators.
type Container struct {
	Settings *config.Settings

	// Debug receives trace output. It discards everything until
	// EnableDebug is called.
	Debug *log.Logger

	// NewStore builds the settings store for a given root path. Tests
	// replace it with a factory returning an in-memory store.
	NewStore func(root string) (store.Store, error)
}

// NewContainer loads settings and wires the production collaborators.
// A settings problem falls back to defaults with a warning rather than
// aborting startup.
func NewContainer() *Container {
	settings, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		settings = config.Default()
	}

	c := &Container{
		Settings: settings,
		Debug:    log.New(io.Discard, "", 0),
	}
	c.NewStore = func(root string) (store.Store, error) {
		return dconf.New(root, c.Settings.DconfBinary, nil)
	}
	return c
}

// EnableDebug routes the debug trace to stderr.
func (c *Container) EnableDebug() {
	c.Debug = log.New(os.Stderr, "[dconfsync] ", log.LstdFlags)
}

// ReloadSettings replaces the settings from an explicit file path.
func (c *Container) ReloadSettings(path string) error {
	settings, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Settings = settings
	return nil
}
