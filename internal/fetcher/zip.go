package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// IsZIP reports whether path names a ZIP archive, judged by extension.
func IsZIP(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

// OpenZIPSingle opens the only file in a ZIP archive for reading, without
// extracting it. Closing the returned reader closes the archive.
func OpenZIPSingle(zipPath string) (io.ReadCloser, string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, "", eris.Wrap(err, "zip: open archive")
	}

	var files []*zip.File
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	if len(files) != 1 {
		r.Close() //nolint:errcheck
		return nil, "", eris.Errorf("zip: expected exactly 1 file, got %d", len(files))
	}

	rc, err := files[0].Open()
	if err != nil {
		r.Close() //nolint:errcheck
		return nil, "", eris.Wrapf(err, "zip: open entry %s", files[0].Name)
	}
	return &zipEntry{ReadCloser: rc, archive: r}, files[0].Name, nil
}

// Open returns a reader over path, or over the single entry of path when
// it is a ZIP archive.
func Open(path string) (io.ReadCloser, error) {
	if IsZIP(path) {
		rc, _, err := OpenZIPSingle(path)
		return rc, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}

type zipEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntry) Close() error {
	err := z.ReadCloser.Close()
	if cerr := z.archive.Close(); err == nil {
		err = cerr
	}
	return err
}
