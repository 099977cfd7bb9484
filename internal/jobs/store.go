package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	jobsDir   = "jobs"
	jobFile   = "job.json"
	scoreFile = "score.json"
)

// ErrNotFound is returned when a job or its score does not exist.
var ErrNotFound = errors.New("not found")

// Store keeps job listings as <data-dir>/jobs/<id>/job.json.
type Store struct {
	dir string
}

func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, jobsDir)}
}

// Dir returns the directory that holds everything related to the job.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *Store) Get(id string) (*Listing, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(id), jobFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", id, err)
	}

	listing, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	listing.ID = id

	return listing, nil
}

// Put writes the listing, assigning a new id when it has none.
func (s *Store) Put(listing *Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	if err := validateID(listing.ID); err != nil {
		return err
	}

	return writeJSON(filepath.Join(s.Dir(listing.ID), jobFile), listing)
}

// List returns the ids of all stored jobs in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, entry.Name(), jobFile)); err != nil {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)

	return ids, nil
}

// PutDocument writes a generated document such as resume.md into the job directory.
func (s *Store) PutDocument(id, name string, content []byte) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || name == jobFile || name == scoreFile {
		return "", fmt.Errorf("invalid document name %q", name)
	}

	path := filepath.Join(s.Dir(id), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s for job %s: %w", name, id, err)
	}
	return path, nil
}

func validateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("job id is required")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid job id %q", id)
	}
	return nil
}

// writeJSON replaces path through a temporary file, so a failed write never
// leaves a truncated document behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
