package resolve

import (
	"context"
	"fmt"
	"strings"

	"placelink/internal/config"
	"placelink/internal/core/match"
	"placelink/internal/logger"
)

// Status is the terminal state of a resolution.
type Status string

const (
	StatusFound    Status = "FOUND"
	StatusNotFound Status = "NOT_FOUND"
)

// Meta records which layer produced a result and where it came from.
type Meta struct {
	LayerUsed int    `json:"layerUsed"`
	Source    string `json:"source"`
}

const (
	SourceExternal = "external"
	SourceInternal = "internal"
)

// Result is what a resolution produces. StatusFound implies URL is non-nil,
// StatusNotFound implies it is nil.
type Result struct {
	Status Status
	URL    *string
	Meta   *Meta
}

// SearchAdapter is the injected external search dependency. Implementations
// must honor ctx cancellation and return a *StatusError for HTTP failures so
// the worker can classify them.
type SearchAdapter interface {
	Search(ctx context.Context, query string, limit int) ([]match.Candidate, error)
}

type Resolver struct {
	adapter    SearchAdapter
	providers  *config.Registry
	minScore   int
	maxResults int
	log        *logger.Logger
}

func New(adapter SearchAdapter, providers *config.Registry, minScore, maxResults int) *Resolver {
	if minScore <= 0 {
		minScore = match.DefaultMinScore
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Resolver{
		adapter:    adapter,
		providers:  providers,
		minScore:   minScore,
		maxResults: maxResults,
		log:        logger.New("Resolver"),
	}
}

// Resolve walks the three layers: external search with fuzzy matching, then
// a heuristic canonical URL, then a definitive not-found. Transient adapter
// failures propagate to the caller for retry; permanent ones degrade to
// layer 2, preferring an unverified but plausible link over none.
func (r *Resolver) Resolve(ctx context.Context, providerKey, name, cityHint string) (Result, error) {
	provider, ok := r.providers.Get(providerKey)
	if !ok {
		return Result{}, fmt.Errorf("unknown provider %q", providerKey)
	}

	// Layer 1: external search scored by the matcher.
	query := BuildQuery(name, cityHint, provider.Domain)
	candidates, err := r.adapter.Search(ctx, query, r.maxResults)
	if err != nil {
		if Classify(err) == ClassTransient {
			return Result{}, err
		}
		r.log.LogWarnf("search failed permanently for %q, falling back to heuristic: %v", name, err)
	} else {
		best := match.FindBestMatch(candidates, name, cityHint, r.minScore)
		r.log.LogDebugf("scored %d candidates for %q: best=%d found=%v", len(best.Scores), name, best.Score, best.Found)
		if best.Found {
			url := best.URL
			return Result{
				Status: StatusFound,
				URL:    &url,
				Meta:   &Meta{LayerUsed: 1, Source: SourceExternal},
			}, nil
		}
	}

	// Layer 2: canonical URL from the slugified name. Accepted without
	// scoring; its confidence is structural, not content-matched.
	if slug := Slugify(name); slug != "" && provider.URLTemplate != "" {
		url := fmt.Sprintf(provider.URLTemplate, slug)
		return Result{
			Status: StatusFound,
			URL:    &url,
			Meta:   &Meta{LayerUsed: 2, Source: SourceInternal},
		}, nil
	}

	// Layer 3: definitively not found.
	return Result{
		Status: StatusNotFound,
		Meta:   &Meta{LayerUsed: 3, Source: SourceInternal},
	}, nil
}

// BuildQuery quotes the name and city and restricts results to the
// provider's domain.
func BuildQuery(name, cityHint, domain string) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%q", name))
	if cityHint != "" {
		parts = append(parts, fmt.Sprintf("%q", cityHint))
	}
	if domain != "" {
		parts = append(parts, "site:"+domain)
	}
	return strings.Join(parts, " ")
}

// Slugify turns a name into the lowercase-hyphenated form provider URLs use.
// Non-ASCII letters are dropped rather than transliterated.
func Slugify(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	lastHyphen := true // trim leading hyphens
	for _, r := range lower {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
