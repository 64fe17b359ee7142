package tasks

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// copyFile copies src to dst on fsys, creating dst's parent directories.
func copyFile(fsys afero.Fs, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// requireDir fails unless dir exists on fsys and is a directory.
func requireDir(fsys afero.Fs, dir string) error {
	ok, err := afero.DirExists(fsys, dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("directory %s does not exist", dir)
	}
	return nil
}
