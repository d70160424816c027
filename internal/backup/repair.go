package backup

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/structures"
)

// FolderRepair scans the top level of the legacy shared root for folders
// that loosely match the product's naming tokens and tries to fold them
// back into the canonical backup folder. Users (and some file managers)
// occasionally rename or move the folder; without this step those backups
// would never be found again.
//
// Every operation in here is best-effort: a failed rename leaves the
// misnamed folder in place and its files are still reported as candidates.
type FolderRepair struct {
	fs     afero.Fs
	conf   *structures.Config
	logger providers.Logger
}

func NewFolderRepair(fsys afero.Fs, conf *structures.Config, logger providers.Logger) *FolderRepair {
	return &FolderRepair{fs: fsys, conf: conf, logger: logger}
}

// ScanAndRepair returns candidates found in loosely matching folders,
// after attempting to merge those folders into the canonical one.
func (fr *FolderRepair) ScanAndRepair() []models.Candidate {
	root := fr.conf.Backup.LegacySharedDir
	if root == "" {
		return nil
	}

	entries, err := afero.ReadDir(fr.fs, root)
	if err != nil {
		fr.logger.Debugf(providers.TypeBackup, "Repair scan of %s failed: %s", root, err)
		return nil
	}

	canonical := filepath.Join(root, fr.conf.Backup.FolderToken)
	var out []models.Candidate
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == fr.conf.Backup.FolderToken {
			continue
		}
		if !fr.looseMatch(entry.Name()) {
			continue
		}

		misnamed := filepath.Join(root, entry.Name())
		fr.logger.Warnf(providers.TypeBackup, "Found misnamed backup folder %s, attempting repair", misnamed)

		dir := fr.mergeInto(misnamed, canonical)
		out = append(out, fr.collectFrom(dir)...)
	}
	return out
}

// looseMatch reports whether a folder name looks like a relocated backup
// folder: it contains the product token or the canonical folder name,
// case-insensitively.
func (fr *FolderRepair) looseMatch(name string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, strings.ToLower(fr.conf.Backup.FolderToken)) {
		return true
	}
	return strings.Contains(lower, strings.ToLower(fr.conf.AppName))
}

// mergeInto tries to rename the misnamed folder to the canonical name, or,
// when the canonical folder already exists, to move matching files across.
// It returns the directory candidates should be collected from.
func (fr *FolderRepair) mergeInto(misnamed, canonical string) string {
	if _, err := fr.fs.Stat(canonical); err != nil {
		if err := fr.fs.Rename(misnamed, canonical); err != nil {
			fr.logger.Warnf(providers.TypeBackup, "Rename of %s failed: %s", misnamed, err)
			return misnamed
		}
		return canonical
	}

	files, err := afero.ReadDir(fr.fs, misnamed)
	if err != nil {
		return misnamed
	}
	moved := true
	for _, f := range files {
		if f.IsDir() || !fr.looseFileMatch(f.Name()) {
			continue
		}
		src := filepath.Join(misnamed, f.Name())
		dst := filepath.Join(canonical, f.Name())
		if _, err := fr.fs.Stat(dst); err == nil {
			// Never clobber a file already under the canonical folder
			moved = false
			continue
		}
		if err := fr.fs.Rename(src, dst); err != nil {
			fr.logger.Warnf(providers.TypeBackup, "Move of %s failed: %s", src, err)
			moved = false
		}
	}
	if moved {
		if err := fr.fs.Remove(misnamed); err != nil {
			fr.logger.Debugf(providers.TypeBackup, "Cleanup of %s failed: %s", misnamed, err)
		}
		return canonical
	}
	return misnamed
}

func (fr *FolderRepair) looseFileMatch(name string) bool {
	if name == fr.conf.Backup.FileName {
		return true
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".json") &&
		strings.Contains(lower, strings.ToLower(fr.conf.AppName))
}

func (fr *FolderRepair) collectFrom(dir string) []models.Candidate {
	files, err := afero.ReadDir(fr.fs, dir)
	if err != nil {
		return nil
	}
	var out []models.Candidate
	for _, f := range files {
		if f.IsDir() || !fr.looseFileMatch(f.Name()) {
			continue
		}
		out = append(out, models.Candidate{
			Handle: models.PathHandle(filepath.Join(dir, f.Name())),
			Origin: models.OriginLegacyShared,
		})
	}
	return out
}
