package backup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/structures"
)

// IndexEntry is the metadata the managed index exposes for one stored item.
type IndexEntry struct {
	Ref        string
	Name       string
	RelPath    string
	ModifiedAt time.Time
}

// ManagedIndex is the indirect managed store: items are addressed by opaque
// content references resolved through a metadata index, never by path. The
// backing store survives reinstall; any call may fail with
// models.ErrPermissionDenied when the platform requires an interactive grant.
type ManagedIndex interface {
	QueryByName(name string) ([]IndexEntry, error)
	QueryByToken(token string) ([]IndexEntry, error)
	Open(ref string) ([]byte, error)
	Stat(ref string) (IndexEntry, error)
	Create(name string, data []byte) (IndexEntry, error)
	Delete(ref string) error
}

const indexFileName = ".index.json"

// DirManagedIndex implements ManagedIndex over a directory tree. Content
// references are uuids kept in a sidecar index file so they stay stable
// across processes even when the provider relocates or renames files.
type DirManagedIndex struct {
	mu     sync.Mutex
	fs     afero.Fs
	root   string
	logger providers.Logger
}

func NewDirManagedIndex(fsys afero.Fs, conf *structures.Config, logger providers.Logger) ManagedIndex {
	return &DirManagedIndex{
		fs:     fsys,
		root:   conf.Backup.ManagedIndexDir,
		logger: logger,
	}
}

type sidecarIndex struct {
	Refs map[string]string `json:"refs"` // ref -> relative path
}

func (d *DirManagedIndex) QueryByName(name string) ([]IndexEntry, error) {
	return d.query(func(e IndexEntry) bool {
		return e.Name == name
	})
}

func (d *DirManagedIndex) QueryByToken(token string) ([]IndexEntry, error) {
	needle := strings.ToLower(token)
	return d.query(func(e IndexEntry) bool {
		return strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.RelPath), needle)
	})
}

func (d *DirManagedIndex) query(match func(IndexEntry) bool) ([]IndexEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sidecar, err := d.loadSidecar()
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]string, len(sidecar.Refs))
	for ref, rel := range sidecar.Refs {
		byPath[rel] = ref
	}

	var entries []IndexEntry
	changed := false
	walkErr := afero.Walk(d.fs, d.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || filepath.Base(path) == indexFileName {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return nil
		}
		ref, ok := byPath[rel]
		if !ok {
			ref = uuid.NewString()
			sidecar.Refs[ref] = rel
			changed = true
		}
		entry := IndexEntry{
			Ref:        ref,
			Name:       filepath.Base(rel),
			RelPath:    rel,
			ModifiedAt: info.ModTime(),
		}
		if match(entry) {
			entries = append(entries, entry)
		}
		return nil
	})
	if walkErr != nil {
		return nil, mapFsErr(walkErr)
	}

	if changed {
		if err := d.saveSidecar(sidecar); err != nil {
			d.logger.Warnf(providers.TypeBackup, "Failed to persist managed index sidecar: %s", err)
		}
	}
	return entries, nil
}

func (d *DirManagedIndex) Open(ref string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rel, err := d.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(d.fs, filepath.Join(d.root, rel))
	if err != nil {
		return nil, mapFsErr(err)
	}
	return data, nil
}

func (d *DirManagedIndex) Stat(ref string) (IndexEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rel, err := d.resolve(ref)
	if err != nil {
		return IndexEntry{}, err
	}
	info, err := d.fs.Stat(filepath.Join(d.root, rel))
	if err != nil {
		return IndexEntry{}, mapFsErr(err)
	}
	return IndexEntry{
		Ref:        ref,
		Name:       filepath.Base(rel),
		RelPath:    rel,
		ModifiedAt: info.ModTime(),
	}, nil
}

func (d *DirManagedIndex) Create(name string, data []byte) (IndexEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.fs.MkdirAll(d.root, 0755); err != nil {
		return IndexEntry{}, mapFsErr(err)
	}
	path := filepath.Join(d.root, name)
	if err := afero.WriteFile(d.fs, path, data, 0644); err != nil {
		return IndexEntry{}, mapFsErr(err)
	}

	sidecar, err := d.loadSidecar()
	if err != nil {
		return IndexEntry{}, err
	}

	// Overwriting an existing name keeps its ref stable
	ref := ""
	for r, rel := range sidecar.Refs {
		if rel == name {
			ref = r
			break
		}
	}
	if ref == "" {
		ref = uuid.NewString()
		sidecar.Refs[ref] = name
		if err := d.saveSidecar(sidecar); err != nil {
			d.logger.Warnf(providers.TypeBackup, "Failed to persist managed index sidecar: %s", err)
		}
	}

	info, err := d.fs.Stat(path)
	if err != nil {
		return IndexEntry{}, mapFsErr(err)
	}
	return IndexEntry{Ref: ref, Name: name, RelPath: name, ModifiedAt: info.ModTime()}, nil
}

func (d *DirManagedIndex) Delete(ref string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sidecar, err := d.loadSidecar()
	if err != nil {
		return err
	}
	rel, ok := sidecar.Refs[ref]
	if !ok {
		return models.ErrNotFound
	}
	if err := d.fs.Remove(filepath.Join(d.root, rel)); err != nil && !os.IsNotExist(err) {
		return mapFsErr(err)
	}
	delete(sidecar.Refs, ref)
	if err := d.saveSidecar(sidecar); err != nil {
		d.logger.Warnf(providers.TypeBackup, "Failed to persist managed index sidecar: %s", err)
	}
	return nil
}

func (d *DirManagedIndex) resolve(ref string) (string, error) {
	sidecar, err := d.loadSidecar()
	if err != nil {
		return "", err
	}
	rel, ok := sidecar.Refs[ref]
	if !ok {
		return "", models.ErrNotFound
	}
	return rel, nil
}

func (d *DirManagedIndex) loadSidecar() (*sidecarIndex, error) {
	sidecar := &sidecarIndex{Refs: make(map[string]string)}
	data, err := afero.ReadFile(d.fs, filepath.Join(d.root, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return sidecar, nil
		}
		return nil, mapFsErr(err)
	}
	if err := json.Unmarshal(data, sidecar); err != nil {
		// A broken sidecar is rebuilt from scratch on the next query
		d.logger.Warnf(providers.TypeBackup, "Managed index sidecar unreadable, rebuilding: %s", err)
		return &sidecarIndex{Refs: make(map[string]string)}, nil
	}
	if sidecar.Refs == nil {
		sidecar.Refs = make(map[string]string)
	}
	return sidecar, nil
}

func (d *DirManagedIndex) saveSidecar(sidecar *sidecarIndex) error {
	data, err := json.Marshal(sidecar)
	if err != nil {
		return err
	}
	return afero.WriteFile(d.fs, filepath.Join(d.root, indexFileName), data, 0644)
}

// mapFsErr normalizes filesystem errors to the typed sentinels callers
// branch on.
func mapFsErr(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return models.ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return models.ErrNotFound
	default:
		return err
	}
}
