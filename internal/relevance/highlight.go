package relevance

import (
	"sort"
	"strings"
	"unicode"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// span is a half-open rune interval [start, end) of matched text.
type span struct {
	start, end int
}

// highlights returns the per-field highlight map for a ticket. The subject
// is wrapped whole; the body contributes a bounded, highlighted snippet.
// Fields without matches are omitted.
func (r *Ranker) highlights(t *models.Ticket, terms []string) map[string]string {
	out := make(map[string]string, 2)
	if marked, matched := wrapMatches(t.Subject, terms); matched {
		out["subject"] = marked
	}
	if snippet, matched := snippetHighlighted(t.Body, terms, r.cfg.SnippetRadius); matched {
		out["body"] = snippet
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// snippet is the plain (unmarked) body window around the first match.
func (r *Ranker) snippet(t *models.Ticket, terms []string) string {
	runes := []rune(t.Body)
	spans := matchSpans(runes, terms)
	return cutWindow(runes, spans, r.cfg.SnippetRadius)
}

// wrapMatches wraps every matched term occurrence in <em> tags, preserving
// the original casing. Overlapping matches merge into one wrap, which keeps
// substring terms from nesting tags inside longer matches.
func wrapMatches(text string, terms []string) (string, bool) {
	runes := []rune(text)
	spans := matchSpans(runes, terms)
	if len(spans) == 0 {
		return text, false
	}
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(string(runes[prev:s.start]))
		b.WriteString("<em>")
		b.WriteString(string(runes[s.start:s.end]))
		b.WriteString("</em>")
		prev = s.end
	}
	b.WriteString(string(runes[prev:]))
	return b.String(), true
}

// snippetHighlighted cuts the body window around the first match and wraps
// the matches inside it.
func snippetHighlighted(text string, terms []string, radius int) (string, bool) {
	runes := []rune(text)
	spans := matchSpans(runes, terms)
	if len(spans) == 0 {
		return "", false
	}
	window := cutWindow(runes, spans, radius)
	marked, _ := wrapMatches(strings.Trim(window, "…"), terms)
	if strings.HasPrefix(window, "…") {
		marked = "…" + marked
	}
	if strings.HasSuffix(window, "…") {
		marked += "…"
	}
	return marked, true
}

// matchSpans finds all case-insensitive term occurrences as rune spans,
// merged so overlapping or touching matches become one.
func matchSpans(runes []rune, terms []string) []span {
	if len(runes) == 0 || len(terms) == 0 {
		return nil
	}
	folded := foldRunes(runes)
	var spans []span
	for _, term := range terms {
		tr := []rune(term)
		if len(tr) == 0 {
			continue
		}
		for i := 0; i+len(tr) <= len(folded); i++ {
			if equalRunes(folded[i:i+len(tr)], tr) {
				spans = append(spans, span{start: i, end: i + len(tr)})
			}
		}
	}
	return mergeSpans(spans)
}

// cutWindow extracts the snippet window around the first span, radius runes
// either side, ellipsised on cut edges. With no spans the window starts at
// the front of the text.
func cutWindow(runes []rune, spans []span, radius int) string {
	if len(runes) == 0 {
		return ""
	}
	start, end := 0, 0
	if len(spans) > 0 {
		start = spans[0].start - radius
		end = spans[0].end + radius
	} else {
		end = 2 * radius
	}
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}

func mergeSpans(spans []span) []span {
	if len(spans) < 2 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// foldRunes lowercases rune-by-rune, which keeps indices aligned with the
// original text.
func foldRunes(runes []rune) []rune {
	folded := make([]rune, len(runes))
	for i, r := range runes {
		folded[i] = unicode.ToLower(r)
	}
	return folded
}

func equalRunes(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
