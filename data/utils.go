package data

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// defaultPath returns ~/.expert/<name>, creating the directory.
func defaultPath(name string) (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(homeDir, ".expert")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
