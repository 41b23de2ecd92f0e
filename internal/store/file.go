package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-coach/internal/interview"
)

const defaultDir = "sessions"

// FileStore keeps every session in its own YAML file.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = defaultDir
	}
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(_ context.Context, session *interview.Session) error {
	if err := validateID(session.ID); err != nil {
		return err
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, session.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session %s: %w", session.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(session.ID)); err != nil {
		return fmt.Errorf("store session %s: %w", session.ID, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, id string) (*interview.Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	var session interview.Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}
