package service

import (
	"io"
	"os"
	"path/filepath"
)

// SaveTempFile spools an upload to disk so the splitter can work on a real
// file path. dir may be empty for the system temp dir. Callers remove the
// file when done.
func SaveTempFile(dir, name string, r io.Reader) (string, error) {
	f, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
