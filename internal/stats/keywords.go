package stats

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/chatlens/chatlens/internal/normalize"
)

// maxKeywords bounds the ranked keyword list. Transports may trim further.
const maxKeywords = 120

// defaultStopWords is the built-in bilingual stop-word list; user additions
// are unioned per request.
var defaultStopWords = []string{
	"的", "了", "和", "是", "在", "我", "你", "我们", "他们", "它", "这", "那", "一个", "以及",
	"with", "the", "and", "for", "this", "that", "are", "was", "were", "from", "your", "have",
	"has", "will", "would", "could", "should", "can", "about", "into", "over", "after",
}

// buildStopSet constructs a fresh lowercase stop-word set per request; the
// set is never shared between requests.
func buildStopSet(extra []string) map[string]bool {
	set := make(map[string]bool, len(defaultStopWords)+len(extra))
	for _, w := range defaultStopWords {
		set[w] = true
	}
	for _, w := range extra {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = true
		}
	}
	return set
}

// computeKeywords ranks token frequencies across all message text, filtered
// by the stop-word set and a minimum token length of two runes. The top
// entry anchors NormalizedWeight at 1.0.
func computeKeywords(msgs []normalize.Message, opts Options) []Keyword {
	tokenizer := opts.Tokenize
	if tokenizer == nil {
		tokenizer = strings.Fields
	}
	stopSet := buildStopSet(opts.StopWords)

	freq := make(map[string]int)
	for _, m := range msgs {
		for _, token := range tokenizer(m.Text) {
			word := strings.ToLower(strings.TrimSpace(token))
			if word == "" || stopSet[word] || utf8.RuneCountInString(word) < 2 {
				continue
			}
			freq[word]++
		}
	}
	if len(freq) == 0 {
		return []Keyword{}
	}

	ranked := make([]Keyword, 0, len(freq))
	for word, count := range freq {
		ranked = append(ranked, Keyword{Word: word, Weight: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Word < ranked[j].Word
	})
	if len(ranked) > maxKeywords {
		ranked = ranked[:maxKeywords]
	}

	max := ranked[0].Weight
	for i := range ranked {
		ranked[i].NormalizedWeight = float64(ranked[i].Weight) / float64(max)
	}
	return ranked
}
