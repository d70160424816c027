package backup

import (
	"errors"
	"math"
	"sort"

	"github.com/spf13/afero"

	"glucolog/internal/models"
	"glucolog/internal/providers"
)

// Ranker reads and scores discovered candidates and selects the single best
// snapshot. One unreadable or undecodable candidate never aborts ranking of
// the rest; it is skipped.
type Ranker struct {
	fs     afero.Fs
	index  ManagedIndex
	logger providers.Logger
}

func NewRanker(fsys afero.Fs, index ManagedIndex, logger providers.Logger) *Ranker {
	return &Ranker{fs: fsys, index: index, logger: logger}
}

// Rank returns the best candidate, or nil when the input is empty or every
// candidate failed to read or decode. The second return value carries the
// first indirect candidate whose read was refused pending a permission
// grant, so the caller can prompt instead of silently giving up.
func (r *Ranker) Rank(candidates []models.Candidate) (*models.ScoredCandidate, *models.Candidate) {
	scored, denied := r.ScoreAll(candidates)
	if len(scored) == 0 {
		return nil, denied
	}
	best := scored[0]
	return &best, denied
}

// ScoreAll scores every readable candidate and returns them best-first.
func (r *Ranker) ScoreAll(candidates []models.Candidate) ([]models.ScoredCandidate, *models.Candidate) {
	var scored []models.ScoredCandidate
	var denied *models.Candidate

	for _, c := range candidates {
		sc, err := r.score(c)
		if err != nil {
			if errors.Is(err, models.ErrPermissionDenied) && c.Handle.Indirect() && denied == nil {
				needs := c
				denied = &needs
			}
			r.logger.Debugf(providers.TypeBackup, "Skipping candidate %s: %s", c.Handle.Key(), err)
			continue
		}
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return better(scored[i], scored[j])
	})
	return scored, denied
}

func (r *Ranker) score(c models.Candidate) (models.ScoredCandidate, error) {
	data, modified, err := r.Read(c.Handle)
	if err != nil {
		return models.ScoredCandidate{}, err
	}

	snapshot, hadExplicit, err := Decode(data)
	if err != nil {
		return models.ScoredCandidate{}, err
	}

	// Recency resolution: an explicit export timestamp is authoritative;
	// otherwise fall back to storage-layer modification metadata, and when
	// even that is missing the candidate sorts last on recency.
	effective := int64(math.MinInt64)
	switch {
	case hadExplicit:
		effective = snapshot.ExportedAt
	case modified > 0:
		effective = modified
	}

	return models.ScoredCandidate{
		Candidate:   c,
		Snapshot:    snapshot,
		HadExplicit: hadExplicit,
		RecordCount: len(snapshot.Records),
		EffectiveTS: effective,
	}, nil
}

// Read fetches a handle's bytes plus its storage-layer modification time
// in ms since epoch (zero when unavailable), switching on handle kind.
func (r *Ranker) Read(h models.Handle) ([]byte, int64, error) {
	switch h.Kind {
	case models.HandleIndirect:
		data, err := r.index.Open(h.Ref)
		if err != nil {
			return nil, 0, err
		}
		modified := int64(0)
		if entry, err := r.index.Stat(h.Ref); err == nil && entry.ModifiedAt.Unix() > 0 {
			modified = entry.ModifiedAt.UnixMilli()
		}
		return data, modified, nil
	default:
		data, err := afero.ReadFile(r.fs, h.Path)
		if err != nil {
			return nil, 0, mapFsErr(err)
		}
		modified := int64(0)
		if info, err := r.fs.Stat(h.Path); err == nil && info.ModTime().Unix() > 0 {
			modified = info.ModTime().UnixMilli()
		}
		return data, modified, nil
	}
}

// better is the selection comparator, applied in strict priority order:
// explicit export timestamp, then record count, then effective recency,
// then origin trustworthiness. Record count deliberately outranks recency:
// a stale but complete export beats a fresh but truncated one.
func better(a, b models.ScoredCandidate) bool {
	if a.HadExplicit != b.HadExplicit {
		return a.HadExplicit
	}
	if a.RecordCount != b.RecordCount {
		return a.RecordCount > b.RecordCount
	}
	if a.EffectiveTS != b.EffectiveTS {
		return a.EffectiveTS > b.EffectiveTS
	}
	return a.Origin.Priority() > b.Origin.Priority()
}
