// Package relevance ranks candidate tickets against a free-text query with
// TF-IDF cosine similarity computed over the candidate set. No external
// index is involved; candidates arrive pre-filtered from the store.
package relevance

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/sla"
)

// Config holds the immutable ranker settings. Zero values take defaults.
type Config struct {
	// SnippetRadius is the rune window kept either side of the first body
	// match.
	SnippetRadius int
	// MaxHighlightTerms caps how many query terms get wrapped.
	MaxHighlightTerms int
	// Stopwords overrides the default set when non-nil.
	Stopwords []string
}

const (
	defaultSnippetRadius     = 60
	defaultMaxHighlightTerms = 8
)

func (c Config) withDefaults() Config {
	if c.SnippetRadius <= 0 {
		c.SnippetRadius = defaultSnippetRadius
	}
	if c.MaxHighlightTerms <= 0 {
		c.MaxHighlightTerms = defaultMaxHighlightTerms
	}
	return c
}

// TermVector is a cached tokenization of one document.
type TermVector struct {
	Counts       map[string]int `json:"counts"`
	Total        int            `json:"total"`
	LastModified time.Time      `json:"last_modified"`
}

// VectorCache stores term vectors keyed by document content hash. Both the
// local and Redis backends satisfy this.
type VectorCache interface {
	GetVector(key string) (*TermVector, bool)
	SetVector(key string, v *TermVector)
}

// Scored is one ranked candidate. Highlights carry <em>-wrapped matches for
// the subject and a bounded body snippet; Snippet is the same window without
// markup.
type Scored struct {
	Ticket     *models.Ticket
	Score      float64
	Highlights map[string]string
	Snippet    string
	Metadata   models.TicketMetadata
}

// Ranker scores candidates against queries. Immutable after construction and
// safe for concurrent use.
type Ranker struct {
	cfg   Config
	stop  map[string]struct{}
	cache VectorCache
	sla   *sla.Calculator
	now   func() time.Time
}

// NewRanker builds a ranker. cache may be nil to disable term-vector reuse.
func NewRanker(cfg Config, cache VectorCache, slaCalc *sla.Calculator) *Ranker {
	if slaCalc == nil {
		slaCalc = sla.NewCalculator(false)
	}
	return &Ranker{
		cfg:   cfg.withDefaults(),
		stop:  stopwordSet(cfg.Stopwords),
		cache: cache,
		sla:   slaCalc,
		now:   time.Now,
	}
}

// NewRankerAt is NewRanker with an injected clock, for tests.
func NewRankerAt(cfg Config, cache VectorCache, slaCalc *sla.Calculator, now func() time.Time) *Ranker {
	r := NewRanker(cfg, cache, slaCalc)
	r.now = now
	return r
}

// Rank scores every candidate against the query and returns all of them in
// descending score order. The sort is stable: candidates arriving earlier
// win ties, so the store's Created_Date ordering decides equal scores and
// places zero-score candidates at the tail in input order. Callers apply
// their own score threshold. Scores are clamped to [0, 1].
func (r *Ranker) Rank(query string, candidates []models.Ticket) []Scored {
	if len(candidates) == 0 {
		return nil
	}
	terms := tokenize(query, r.stop)
	if len(terms) == 0 {
		return r.allZero(candidates)
	}
	queryCounts, queryTotal := termCounts(terms)

	vectors := make([]*TermVector, len(candidates))
	for i := range candidates {
		vectors[i] = r.docVector(&candidates[i])
	}

	// Document frequency over the candidate set, query included so query
	// terms always have a defined IDF.
	df := make(map[string]int)
	for term := range queryCounts {
		df[term]++
	}
	for _, v := range vectors {
		for term := range v.Counts {
			df[term]++
		}
	}
	n := len(candidates) + 1
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log(float64(n+1)/float64(count+1)) + 1
	}

	queryWeights, queryNorm := weigh(queryCounts, queryTotal, idf)
	if queryNorm == 0 {
		return r.allZero(candidates)
	}

	now := r.now()
	highlightTerms := rankTermsForHighlight(terms, r.cfg.MaxHighlightTerms)

	scored := make([]Scored, 0, len(candidates))
	for i := range candidates {
		t := &candidates[i]
		entry := Scored{Ticket: t, Metadata: r.Metadata(t, now)}
		docWeights, docNorm := weigh(vectors[i].Counts, vectors[i].Total, idf)
		if docNorm > 0 {
			var dot float64
			for term, qw := range queryWeights {
				if dw, ok := docWeights[term]; ok {
					dot += qw * dw
				}
			}
			score := dot / (queryNorm * docNorm)
			if score > 1 {
				score = 1
			}
			if score > 0 {
				entry.Score = score
				entry.Highlights = r.highlights(t, highlightTerms)
				entry.Snippet = r.snippet(t, highlightTerms)
			}
		}
		scored = append(scored, entry)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// allZero returns every candidate scored zero in input order, as happens for
// queries with no rankable terms.
func (r *Ranker) allZero(candidates []models.Ticket) []Scored {
	now := r.now()
	scored := make([]Scored, 0, len(candidates))
	for i := range candidates {
		t := &candidates[i]
		scored = append(scored, Scored{Ticket: t, Metadata: r.Metadata(t, now)})
	}
	return scored
}

// docVector tokenizes one ticket, going through the cache when configured.
// A cached vector is reused only while the ticket's LastModified has not
// moved past the cached stamp.
func (r *Ranker) docVector(t *models.Ticket) *TermVector {
	text := docText(t)
	if r.cache == nil {
		counts, total := termCounts(tokenize(text, r.stop))
		return &TermVector{Counts: counts, Total: total, LastModified: t.LastModified}
	}
	key := contentKey(text)
	if v, ok := r.cache.GetVector(key); ok && !t.LastModified.After(v.LastModified) {
		return v
	}
	counts, total := termCounts(tokenize(text, r.stop))
	v := &TermVector{Counts: counts, Total: total, LastModified: t.LastModified}
	r.cache.SetVector(key, v)
	return v
}

// docText is the ranked document: subject, body, and category label.
func docText(t *models.Ticket) string {
	text := t.Subject + " " + t.Body
	if t.CategoryLabel != nil && *t.CategoryLabel != "" {
		text += " " + *t.CategoryLabel
	}
	return text
}

// contentKey hashes document text into a cache key.
func contentKey(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return fmt.Sprintf("tv:%x", h.Sum64())
}

// weigh builds TF-IDF weights and the vector's Euclidean norm.
func weigh(counts map[string]int, total int, idf map[string]float64) (map[string]float64, float64) {
	if total == 0 {
		return nil, 0
	}
	weights := make(map[string]float64, len(counts))
	var sumSquares float64
	for term, count := range counts {
		w := (float64(count) / float64(total)) * idf[term]
		weights[term] = w
		sumSquares += w * w
	}
	return weights, math.Sqrt(sumSquares)
}

// rankTermsForHighlight orders query terms longest first (so broader matches
// wrap before their substrings) and caps the list.
func rankTermsForHighlight(terms []string, max int) []string {
	uniq := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			uniq = append(uniq, t)
		}
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		return len(uniq[i]) > len(uniq[j])
	})
	if len(uniq) > max {
		uniq = uniq[:max]
	}
	return uniq
}
