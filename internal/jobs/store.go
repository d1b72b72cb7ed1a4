package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is used when no job file path is given.
const DefaultFile = "jobs.toml"

// file is the job file layout for TOML marshaling.
type file struct {
	Version int            `toml:"version"`
	Jobs    map[string]Job `toml:"jobs"`
}

// Store keeps named jobs in a TOML file.
type Store struct {
	path string
	file *file
}

// NewTOML creates a store backed by path. Nothing is read until Load.
func NewTOML(path string) *Store {
	if path == "" {
		path = DefaultFile
	}

	return &Store{
		path: path,
		file: &file{
			Version: 1,
			Jobs:    make(map[string]Job),
		},
	}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the job file. A missing file yields an empty store.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read job file: %w", err)
	}

	loaded := &file{}
	if unmarshalErr := toml.Unmarshal(data, loaded); unmarshalErr != nil {
		return fmt.Errorf("failed to parse job file %s: %w", s.path, unmarshalErr)
	}

	if loaded.Jobs == nil {
		loaded.Jobs = make(map[string]Job)
	}
	if loaded.Version == 0 {
		loaded.Version = 1
	}
	for name, job := range loaded.Jobs {
		job.Name = name
		loaded.Jobs[name] = job
	}

	s.file = loaded
	return nil
}

// Save writes the job file, creating its directory if needed.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create job file directory: %w", err)
	}

	data, err := toml.Marshal(s.file)
	if err != nil {
		return fmt.Errorf("failed to marshal jobs: %w", err)
	}

	if writeErr := os.WriteFile(s.path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write job file: %w", writeErr)
	}
	return nil
}

// Put adds or replaces a job and saves the file.
func (s *Store) Put(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	s.file.Jobs[job.Name] = job
	return s.Save()
}

// Remove deletes a job and saves the file.
func (s *Store) Remove(name string) error {
	delete(s.file.Jobs, name)
	return s.Save()
}

// Get returns a job by name.
func (s *Store) Get(name string) (Job, bool) {
	job, ok := s.file.Jobs[name]
	return job, ok
}

// Names returns all job names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.file.Jobs))
	for name := range s.file.Jobs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Select returns the named jobs in the order given. No names selects every
// job in name order. Unknown names are an error.
func (s *Store) Select(names ...string) ([]Job, error) {
	if len(names) == 0 {
		names = s.Names()
	}

	selected := make([]Job, 0, len(names))
	var missing []string
	for _, name := range names {
		job, ok := s.file.Jobs[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, job)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown jobs in %s: %v", s.path, missing)
	}
	return selected, nil
}
