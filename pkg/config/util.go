package config

import (
	"errors"
	"io/fs"
	"path/filepath"
)

func hasExt(name string) bool {
	return filepath.Ext(name) != ""
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
