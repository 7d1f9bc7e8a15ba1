package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const DefaultConfigPath = "config/config.json"

type fileBlob struct{ path string }

func (f fileBlob) read(context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return raw, err
}

// write escribe en un temporal del mismo directorio y renombra (atómico).
func (f fileBlob) write(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// NewFileStore guarda el documento en path (CONFIG_PATH).
func NewFileStore(path string) GuildConfigStore {
	if path == "" {
		path = DefaultConfigPath
	}
	return &documentStore{b: fileBlob{path: path}}
}
