package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/model"
)

const (
	filePrefix = "complement_nb_"
	fileSuffix = ".json"
)

// ErrInvalidJurisdiction is returned by DirStore.Save for a jurisdiction
// that cannot be used as part of a file name.
var ErrInvalidJurisdiction = eris.New("store: invalid jurisdiction")

// DirStore keeps one JSON file per jurisdiction in a directory. Jurisdiction
// keys are limited to ASCII letters, digits, '-' and '_' so a key never
// names a file outside the directory.
type DirStore struct {
	dir     string
	matcher *elf.Matcher
}

// NewDir returns a DirStore rooted at dir, creating it if needed.
func NewDir(dir string) (*DirStore, error) {
	if dir == "" {
		return nil, eris.New("dir: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "dir: create %s", dir)
	}
	return &DirStore{dir: dir, matcher: elf.NewMatcher(0)}, nil
}

// Path returns the file a jurisdiction's model is stored in.
func (s *DirStore) Path(jurisdiction string) string {
	return filepath.Join(s.dir, filePrefix+jurisdiction+fileSuffix)
}

// validKey reports whether jurisdiction is safe to embed in a file name.
func validKey(jurisdiction string) bool {
	if jurisdiction == "" {
		return false
	}
	for _, r := range jurisdiction {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func (s *DirStore) Save(_ context.Context, m *model.Model) error {
	if j := m.Jurisdiction(); !validKey(j) {
		return eris.Wrapf(ErrInvalidJurisdiction, "dir: save %q", j)
	}
	data, err := model.Marshal(m)
	if err != nil {
		return err
	}
	path := s.Path(m.Jurisdiction())

	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return eris.Wrap(err, "dir: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "dir: write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "dir: close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "dir: rename to %s", path)
	}
	return nil
}

func (s *DirStore) Load(_ context.Context, jurisdiction string) (*model.Model, error) {
	if !validKey(jurisdiction) {
		return nil, eris.Wrapf(ErrModelNotFound, "dir: no model for invalid jurisdiction %q", jurisdiction)
	}
	path := s.Path(jurisdiction)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrModelNotFound, "dir: %s", jurisdiction)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dir: read %s", path)
	}
	m, err := model.Unmarshal(data, s.matcher)
	if err != nil {
		return nil, eris.Wrapf(err, "dir: load %s", path)
	}
	return m, nil
}

func (s *DirStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "dir: list %s", s.dir)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		j := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if validKey(j) {
			out = append(out, j)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *DirStore) Close() error {
	return nil
}
