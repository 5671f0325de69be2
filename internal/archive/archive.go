// Package archive bundles a dump directory into a zip file.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beetlebugorg/shpdump/internal/fsutil"
)

// Bundle writes every regular file of dir, in directory-listing order, as a
// top-level entry of a new zip file at zipPath. It returns the entry names.
// A partially written archive is removed.
func Bundle(dir, zipPath string) (names []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	out, err := fsutil.CreateNew(zipPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			os.Remove(zipPath)
		}
	}()

	zw := zip.NewWriter(out)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := add(zw, filepath.Join(dir, e.Name())); err != nil {
			return nil, errors.Join(fmt.Errorf("add %s: %w", e.Name(), err), zw.Close(), out.Close())
		}
		names = append(names, e.Name())
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return nil, fmt.Errorf("finish %s: %w", zipPath, err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	return names, nil
}

func add(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
