package matcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/talentmatch/pkg/models"
)

var (
	// ErrNoArtifact means the profiles path does not exist.
	ErrNoArtifact = errors.New("profiles artifact not found")
	// ErrMalformedArtifact means the path exists but does not hold structured
	// profile records.
	ErrMalformedArtifact = errors.New("profiles artifact is not valid")
)

// FileSystemWalker defines the interface for walking directories
type FileSystemWalker interface {
	Walk(root string, options *godirwalk.Options) error
}

// DefaultFileSystemWalker implements FileSystemWalker using godirwalk
type DefaultFileSystemWalker struct{}

func (d *DefaultFileSystemWalker) Walk(root string, options *godirwalk.Options) error {
	return godirwalk.Walk(root, options)
}

// Loader reads extraction artifacts from disk.
type Loader struct {
	Walker FileSystemWalker
}

// NewLoader creates a Loader backed by the real filesystem.
func NewLoader() *Loader {
	return &Loader{Walker: &DefaultFileSystemWalker{}}
}

// Load reads profiles from path. A regular file may hold either a JSON array
// of profiles or an object keyed by source filename; a directory is walked
// for per-source *.json artifacts. Records are returned in a deterministic
// order (array order, or sorted keys/paths), which fixes tie-break ranking.
func (l *Loader) Load(path string) ([]models.Profile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoArtifact, path)
	}

	if fi.IsDir() {
		return l.loadDir(path)
	}
	return loadFile(path)
}

func loadFile(path string) ([]models.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return decodeProfiles(path, b)
}

func decodeProfiles(path string, b []byte) ([]models.Profile, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err == nil {
		// Decode element by element: a stray non-record entry is skipped, not
		// fatal. An array with no usable records at all is malformed.
		var list []models.Profile
		for i, el := range raw {
			var p models.Profile
			if err := json.Unmarshal(el, &p); err != nil {
				log.Warn().Str("path", path).Int("index", i).
					Msg("skipping entry that is not a structured profile record")
				continue
			}
			list = append(list, p)
		}
		if len(raw) > 0 && len(list) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMalformedArtifact, path)
		}
		return list, nil
	}

	// Extraction artifacts are also written as an object keyed by the source
	// CV filename. Sort keys so input order is reproducible.
	var keyed map[string]models.Profile
	if err := json.Unmarshal(b, &keyed); err != nil {
		// Last form: a per-source artifact holding a single profile.
		var one models.Profile
		if err := json.Unmarshal(b, &one); err == nil && (one.Name != "" || one.Contact.Email != "") {
			return []models.Profile{one}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedArtifact, path)
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.Profile, 0, len(keyed))
	for _, k := range keys {
		out = append(out, keyed[k])
	}
	return out, nil
}

func (l *Loader) loadDir(root string) ([]models.Profile, error) {
	var paths []string
	err := l.Walker.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de != nil && de.IsDir() {
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".json") {
				paths = append(paths, path)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	var out []models.Profile
	for _, p := range paths {
		profiles, err := loadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, profiles...)
	}
	return out, nil
}
