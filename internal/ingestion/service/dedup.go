package service

import (
	"strings"
	"time"
	"unicode"

	"golang-etf-dashboard/internal/entity"

	"github.com/patrickmn/go-cache"
)

// DedupDecision is the outcome of admitting one candidate article.
type DedupDecision struct {
	// Keep reports whether the candidate survives.
	Keep bool
	// Losers are previously accepted or persisted articles the candidate
	// displaces; persisted ones (ID > 0) must be retracted from the store.
	Losers []*entity.NewsArticle
}

// NewsDeduper suppresses exact-URL and near-duplicate-title articles.
// Comparisons run candidate-vs-window, O(n*m) at tens to low hundreds of
// articles per cycle.
type NewsDeduper struct {
	threshold float64
	tokenSets *cache.Cache
}

// NewNewsDeduper creates a deduper with the given title-overlap threshold.
func NewNewsDeduper(threshold float64) *NewsDeduper {
	return &NewsDeduper{
		threshold: threshold,
		tokenSets: cache.New(24*time.Hour, 2*time.Hour),
	}
}

// Admit decides whether the candidate enters the accepted set. URL matches
// always drop the candidate. Near-duplicate titles keep whichever article
// was published later; when the candidate is the survivor, the displaced
// articles are returned as losers.
func (d *NewsDeduper) Admit(candidate *entity.NewsArticle, accepted []*entity.NewsArticle) DedupDecision {
	for _, other := range accepted {
		if other.URL == candidate.URL {
			return DedupDecision{Keep: false}
		}
	}

	candidateTokens := d.titleTokens(candidate)

	var losers []*entity.NewsArticle
	for _, other := range accepted {
		overlap := tokenOverlap(candidateTokens, d.titleTokens(other))
		if overlap < d.threshold {
			continue
		}
		// Duplicates: the later-published article survives.
		if !candidate.PublishedAt.After(other.PublishedAt) {
			return DedupDecision{Keep: false}
		}
		losers = append(losers, other)
	}

	return DedupDecision{Keep: true, Losers: losers}
}

// titleTokens returns the normalized token set of an article title, memoized
// by URL across the cycle's comparisons.
func (d *NewsDeduper) titleTokens(article *entity.NewsArticle) map[string]struct{} {
	if article.URL != "" {
		if cached, ok := d.tokenSets.Get(article.URL); ok {
			return cached.(map[string]struct{})
		}
	}
	tokens := NormalizeTitleTokens(article.Title)
	if article.URL != "" {
		d.tokenSets.SetDefault(article.URL, tokens)
	}
	return tokens
}

// titleStopwords are filler words that carry no story identity. Without
// this list, rephrased headlines ("amid", "after", "over") dilute the
// overlap ratio below the threshold.
var titleStopwords = map[string]struct{}{
	"amid": {}, "after": {}, "over": {}, "with": {}, "into": {},
	"from": {}, "this": {}, "that": {}, "will": {}, "says": {},
	"said": {}, "could": {}, "would": {}, "about": {}, "their": {},
	"during": {}, "between": {}, "against": {}, "while": {},
}

// NormalizeTitleTokens lowercases the title, strips punctuation, and drops
// stopwords and tokens of length <= 3.
func NormalizeTitleTokens(title string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, title)

	tokens := make(map[string]struct{})
	for _, token := range strings.Fields(cleaned) {
		if len(token) <= 3 {
			continue
		}
		if _, ok := titleStopwords[token]; ok {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}

// tokenOverlap is |intersection| / min(|a|, |b|). Empty sets never match.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	smaller, larger := a, b
	if len(b) < len(a) {
		smaller, larger = b, a
	}
	var intersection int
	for token := range smaller {
		if _, ok := larger[token]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(smaller))
}
