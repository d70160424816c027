package models

// HandleKind discriminates the two ways a discovered snapshot can be
// addressed: a direct filesystem path, or an opaque reference into the
// indirect managed store.
type HandleKind int

const (
	HandlePath HandleKind = iota
	HandleIndirect
)

// Handle is a tagged union: exactly one of Path or Ref is set, selected by
// Kind. I/O sites must switch on Kind rather than probing for empty strings.
type Handle struct {
	Kind HandleKind
	Path string
	Ref  string
}

func PathHandle(path string) Handle {
	return Handle{Kind: HandlePath, Path: path}
}

func IndirectHandle(ref string) Handle {
	return Handle{Kind: HandleIndirect, Ref: ref}
}

// Key returns the resolved identity string used to deduplicate candidates
// within a single discovery pass. It is never compared across passes.
func (h Handle) Key() string {
	if h.Kind == HandleIndirect {
		return "ref:" + h.Ref
	}
	return "path:" + h.Path
}

// Indirect reports whether reading this handle may require an interactive
// permission grant from the platform.
func (h Handle) Indirect() bool {
	return h.Kind == HandleIndirect
}

// OriginClass tags where a candidate was discovered. It is a tie-break
// signal only, never a correctness signal.
type OriginClass int

const (
	OriginCache OriginClass = iota
	OriginPrivateExternal
	OriginLegacyShared
	OriginManagedIndex
)

func (o OriginClass) String() string {
	switch o {
	case OriginManagedIndex:
		return "managed-index"
	case OriginLegacyShared:
		return "legacy-shared"
	case OriginPrivateExternal:
		return "private-external"
	default:
		return "cache"
	}
}

// Priority returns the tie-break weight of an origin, higher wins. The
// managed index survives reinstall and so is the most trustworthy place to
// find "the" backup; a cache may have been purged and repopulated at any
// time, so it ranks last.
func (o OriginClass) Priority() int {
	return int(o)
}

// Candidate is a discovered, unopened snapshot location. Candidates are
// produced fresh on every discovery pass and never persisted.
type Candidate struct {
	Handle Handle
	Origin OriginClass
}

// ScoredCandidate is a candidate that has been read and decoded, plus the
// facts ranking is decided on. Snapshot keeps the decoded payload so the
// selected candidate does not have to be read twice.
type ScoredCandidate struct {
	Candidate
	Snapshot    Snapshot
	HadExplicit bool
	RecordCount int
	EffectiveTS int64
}
