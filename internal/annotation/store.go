// Package annotation implements the batch annotation session: sequential
// extraction over a directory of OCR'd prescription texts, an injectable
// accept/skip/correct review protocol, incrementally durable JSON storage,
// and flat export for downstream labelling tools.
package annotation

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Store persists the session's full record list.  Save rewrites the whole
// list; Load returns an empty list when no storage exists yet.
type Store interface {
	Load() ([]prescription.AnnotationRecord, error)
	Save(records []prescription.AnnotationRecord) error
	Path() string
}

// fileStore keeps the record list as a JSON array on disk.  Saves go through
// a temporary file in the destination directory followed by a rename, so a
// crash mid-write can never corrupt an existing session file.
type fileStore struct {
	path string
}

// NewFileStore builds a Store over the given JSON file path.  The file does
// not need to exist yet.
func NewFileStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeSessionStorage, "session storage path cannot be empty")
	}
	return &fileStore{path: path}, nil
}

func (s *fileStore) Path() string { return s.path }

func (s *fileStore) Load() ([]prescription.AnnotationRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []prescription.AnnotationRecord{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeSessionStorage, "read session storage")
	}
	var records []prescription.AnnotationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionStorage, "decode session storage")
	}
	return records, nil
}

func (s *fileStore) Save(records []prescription.AnnotationRecord) error {
	if records == nil {
		records = []prescription.AnnotationRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSessionStorage, "encode session storage")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeSessionStorage, "create session storage directory")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSessionStorage, "create temp session file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeSessionStorage, "write temp session file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeSessionStorage, "close temp session file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeSessionStorage, "replace session storage")
	}
	return nil
}
