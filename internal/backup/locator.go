package backup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"glucolog/internal/models"
	"glucolog/internal/providers"
	"glucolog/internal/structures"
)

// Locator enumerates every storage location a backup might live in. Each
// probe is independent and best-effort: a location that denies access or
// fails to enumerate simply contributes zero candidates, it never aborts
// the pass.
type Locator struct {
	fs      afero.Fs
	index   ManagedIndex
	repair  *FolderRepair
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewLocator(fsys afero.Fs, index ManagedIndex, repair *FolderRepair, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *Locator {
	return &Locator{
		fs:      fsys,
		index:   index,
		repair:  repair,
		conf:    conf,
		logger:  logger,
		metrics: metrics,
	}
}

// Discover runs every probe and returns the concatenated candidates,
// deduplicated by resolved handle identity.
func (l *Locator) Discover() []models.Candidate {
	start := time.Now()

	probes := []func() []models.Candidate{
		l.probeManagedIndex,
		l.probeLegacyShared,
		l.probePrivateExternal,
		l.probeCache,
		l.probeRepairScan,
	}

	seen := make(map[string]struct{})
	var out []models.Candidate
	for _, probe := range probes {
		for _, c := range probe() {
			key := c.Handle.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
			l.metrics.IncCandidatesDiscovered(c.Origin.String(), 1)
		}
	}

	l.metrics.ObserveDiscoveryDuration(time.Since(start))
	l.logger.Infof(providers.TypeBackup, "Discovery pass found %d candidate(s)", len(out))
	return out
}

// probeManagedIndex searches the indirect managed store by exact canonical
// filename and by a broader token scan. The broad scan exists because some
// providers silently relocate or rename files.
func (l *Locator) probeManagedIndex() []models.Candidate {
	var out []models.Candidate

	byName, err := l.index.QueryByName(l.conf.Backup.FileName)
	if err != nil {
		l.logger.Debugf(providers.TypeBackup, "Managed index name query failed: %s", err)
	}
	byToken, err := l.index.QueryByToken(l.conf.Backup.FolderToken)
	if err != nil {
		l.logger.Debugf(providers.TypeBackup, "Managed index token query failed: %s", err)
	}

	for _, e := range append(byName, byToken...) {
		out = append(out, models.Candidate{
			Handle: models.IndirectHandle(e.Ref),
			Origin: models.OriginManagedIndex,
		})
	}
	return out
}

// probeLegacyShared checks the directly addressable shared folder. Newer
// platform generations usually refuse direct access; the attempt is still
// made opportunistically and failure is silent.
func (l *Locator) probeLegacyShared() []models.Candidate {
	if l.conf.Backup.LegacySharedDir == "" {
		return nil
	}
	path := filepath.Join(l.conf.Backup.LegacySharedDir, l.conf.Backup.FolderToken, l.conf.Backup.FileName)
	return l.probeFile(path, models.OriginLegacyShared)
}

func (l *Locator) probePrivateExternal() []models.Candidate {
	path := filepath.Join(l.conf.Backup.PrivateExternalDir, l.conf.Backup.FolderToken, l.conf.Backup.FileName)
	return l.probeFile(path, models.OriginPrivateExternal)
}

func (l *Locator) probeCache() []models.Candidate {
	path := filepath.Join(l.conf.Backup.PrivateCacheDir, l.conf.Backup.FolderToken, l.conf.Backup.FileName)
	return l.probeFile(path, models.OriginCache)
}

func (l *Locator) probeFile(path string, origin models.OriginClass) []models.Candidate {
	info, err := l.fs.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Debugf(providers.TypeBackup, "Probe of %s failed: %s", path, err)
		}
		return nil
	}
	if info.IsDir() {
		return nil
	}
	return []models.Candidate{{
		Handle: models.PathHandle(path),
		Origin: origin,
	}}
}

// probeRepairScan is the defensive broad scan for misnamed or manually
// relocated backup folders under the legacy shared root. It is optional
// recovery behavior and can be switched off entirely.
func (l *Locator) probeRepairScan() []models.Candidate {
	if !l.conf.Backup.RepairEnabled {
		return nil
	}
	return l.repair.ScanAndRepair()
}
