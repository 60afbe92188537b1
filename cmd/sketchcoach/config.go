package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sketchcoach/internal/config"
)

const fallbackEditor = "vi"

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.DefaultConfigPath()
			created, err := ensureConfigFile(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote default config to %s\n", path)
			}
			editor := editorCommand(os.Getenv("EDITOR"), path)
			editor.Stdin, editor.Stdout, editor.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := editor.Run(); err != nil {
				return fmt.Errorf("failed to open editor: %w", err)
			}
			return nil
		},
	}
}

// ensureConfigFile writes the commented default template unless path exists.
func ensureConfigFile(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create config: %w", err)
	}
	if _, err := f.WriteString(defaultConfigTemplate()); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}

// editorCommand splits $EDITOR so values like "code --wait" work.
func editorCommand(editor, path string) *exec.Cmd {
	args := strings.Fields(editor)
	if len(args) == 0 {
		args = []string{fallbackEditor}
	}
	return exec.Command(args[0], append(args[1:], path)...)
}
