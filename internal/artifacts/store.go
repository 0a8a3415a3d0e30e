// Package artifacts maps identifiers to files inside the scratch directory.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidID is returned for identifiers that are not UUIDs.
	ErrInvalidID = errors.New("invalid artifact id")
	// ErrMissing is returned when an artifact file is absent or empty.
	ErrMissing = errors.New("artifact missing")
)

// Store lays out scripts, videos and per-job work directories under Dir.
type Store struct {
	Dir string
}

// New creates the scratch directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateID rejects anything that is not a UUID, which keeps lookups inside Dir.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ScriptPath is where a generated script is stored.
func (s *Store) ScriptPath(id string) string {
	return filepath.Join(s.Dir, "script_"+id+".txt")
}

// VideoPath is where a finished video is stored.
func (s *Store) VideoPath(id string) string {
	return filepath.Join(s.Dir, "video_"+id+".mp4")
}

// WorkDir holds intermediate files (audio, subtitles, background) for a job.
func (s *Store) WorkDir(id string) string {
	return filepath.Join(s.Dir, "job_"+id)
}

// EnsureWorkDir creates and returns the job's work directory.
func (s *Store) EnsureWorkDir(id string) (string, error) {
	dir := s.WorkDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

// SaveScript writes the script text and returns its path.
func (s *Store) SaveScript(id, text string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	path := s.ScriptPath(id)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("save script: %w", err)
	}
	return path, nil
}

// Lookup confirms that path exists and is a non-empty regular file.
func Lookup(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissing, filepath.Base(path))
	}
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrMissing, filepath.Base(path))
	}
	return nil
}

// Prune deletes scripts, videos and work directories last modified before
// now-maxAge. It returns the number of entries removed.
func (s *Store) Prune(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("read scratch dir: %w", err)
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !owned(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.Dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func owned(name string) bool {
	switch {
	case strings.HasPrefix(name, "script_") && strings.HasSuffix(name, ".txt"):
	case strings.HasPrefix(name, "video_") && strings.HasSuffix(name, ".mp4"):
	case strings.HasPrefix(name, "job_"):
	default:
		return false
	}
	return true
}
