// Package tokenize splits message text into word-like tokens. A dictionary
// segmenter handles CJK text well; when it is unavailable the package
// degrades to Unicode letter-run matching and finally to splitting on
// non-letter runs. Tokens never fails; worst case it returns no tokens.
package tokenize

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

var (
	segOnce sync.Once
	seg     *gse.Segmenter
)

// segmenter loads the dictionary segmenter exactly once. A failed load is
// cached: the process degrades permanently to the fallback tiers and never
// re-probes.
func segmenter() *gse.Segmenter {
	segOnce.Do(func() {
		var s gse.Segmenter
		if err := s.LoadDict(); err != nil {
			return
		}
		seg = &s
	})
	return seg
}

// Tokens splits text into tokens using the best available tier.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}

	if s := segmenter(); s != nil {
		if tokens := cut(s, text); len(tokens) > 0 {
			return tokens
		}
	}

	return FallbackTokens(text)
}

// cut runs the segmenter, swallowing any panic from a corrupt dictionary so
// the caller can fall back.
func cut(s *gse.Segmenter, text string) (tokens []string) {
	defer func() {
		if recover() != nil {
			tokens = nil
		}
	}()
	return s.Cut(text, true)
}

// FallbackTokens matches maximal runs of Unicode letters (combining marks
// extend a run). When nothing matches it splits on runs of
// non-letter/non-digit characters instead.
func FallbackTokens(text string) []string {
	lower := strings.ToLower(text)

	var tokens []string
	var run strings.Builder
	for _, r := range lower {
		if unicode.IsLetter(r) || (unicode.IsMark(r) && run.Len() > 0) {
			run.WriteRune(r)
			continue
		}
		if run.Len() > 0 {
			tokens = append(tokens, run.String())
			run.Reset()
		}
	}
	if run.Len() > 0 {
		tokens = append(tokens, run.String())
	}
	if len(tokens) > 0 {
		return tokens
	}

	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
