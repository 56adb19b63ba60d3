package models

// Source identifies one of the two knowledge sources the engine can query.
type Source string

const (
	// SourceKYM is Know Your Meme: broad, English-leaning, relative hrefs.
	SourceKYM Source = "kym"
	// SourceMemepedia is Memepedia: Russian-leaning, absolute hrefs.
	SourceMemepedia Source = "memepedia"
)

// Other returns the fallback counterpart of a source.
func (s Source) Other() Source {
	if s == SourceKYM {
		return SourceMemepedia
	}
	return SourceKYM
}

// Valid reports whether s names a known source.
func (s Source) Valid() bool {
	return s == SourceKYM || s == SourceMemepedia
}

// Candidate is a single entry from a source's search-results listing.
// Href may be absolute or relative to the source's base URL depending on
// which source produced it.
type Candidate struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// ScoredCandidate is a candidate annotated with its similarity to the query.
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"`
}

// Detail is a fully resolved item.
type Detail struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// ResolutionKind tags the variant carried by a Resolution.
type ResolutionKind int

const (
	KindDetail ResolutionKind = iota
	KindSuggestions
	KindNotFound
	KindUnavailable
)

func (k ResolutionKind) String() string {
	switch k {
	case KindDetail:
		return "detail"
	case KindSuggestions:
		return "suggestions"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Resolution is the tagged result of searching a source (or both).
// Exactly the fields implied by Kind are populated: Detail for KindDetail,
// Suggestions (non-empty, sorted best-first) for KindSuggestions, Reason for
// KindUnavailable.
type Resolution struct {
	Kind        ResolutionKind
	Detail      *Detail
	Suggestions []ScoredCandidate
	Reason      string
}

func ResolvedDetail(d Detail) Resolution {
	return Resolution{Kind: KindDetail, Detail: &d}
}

func ResolvedSuggestions(items []ScoredCandidate) Resolution {
	return Resolution{Kind: KindSuggestions, Suggestions: items}
}

func NotFound() Resolution {
	return Resolution{Kind: KindNotFound}
}

func Unavailable(reason string) Resolution {
	return Resolution{Kind: KindUnavailable, Reason: reason}
}

// Terminal reports whether a resolution ends the search on its source:
// detail pages and suggestion lists are delivered as-is, while NotFound and
// Unavailable allow the orchestrator to fall back to the other source.
func (r Resolution) Terminal() bool {
	return r.Kind == KindDetail || r.Kind == KindSuggestions
}
