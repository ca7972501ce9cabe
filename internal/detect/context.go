package detect

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
)

// ContextResult is the context analyzer's verdict: a noun/non-noun call with
// the grammatical evidence that produced it, never a gender.
type ContextResult struct {
	IsNoun     bool
	Confidence float64
	Evidence   []string
}

var (
	articleTokens = wordSet(
		"der", "die", "das", "dem", "den", "des",
		"ein", "eine", "einem", "einen", "einer", "eines",
	)
	prepositionTokens = wordSet(
		"in", "an", "auf", "unter", "über", "vor", "hinter", "neben",
		"zwischen", "mit", "nach", "bei", "seit", "von", "zu", "aus",
		"durch", "für", "gegen", "ohne", "um",
	)
	personalPronounTokens = wordSet("ich", "du", "er", "sie", "es", "wir", "ihr")
	finiteVerbTokens      = wordSet(
		"ist", "sind", "war", "waren", "hat", "haben", "hatte", "hatten",
		"wird", "werden", "wurde", "wurden", "kann", "muss", "soll",
		"steht", "stehen", "liegt", "liegen", "geht", "gehen", "kommt",
		"kommen", "gibt", "macht", "bleibt",
	)
	genitiveMarkerTokens = wordSet("des", "eines", "einer")

	declinedAdjectiveEndings = []string{"en", "er", "es", "em", "e"}
)

// ContextAnalyzer inspects a bounded window of text around the target word
// for grammatical signals.
type ContextAnalyzer struct {
	window int
}

func NewContextAnalyzer(window int) *ContextAnalyzer {
	if window <= 0 {
		window = 20
	}
	return &ContextAnalyzer{window: window}
}

// Analyze locates the target word in the surrounding text and scores a fixed,
// ordered set of grammatical patterns. An immediately preceding article is
// the strongest signal and sets the confidence outright; the remaining
// patterns add to a running score capped at 0.98.
func (a *ContextAnalyzer) Analyze(word, surrounding string) ContextResult {
	word = strings.ToLower(strings.TrimSpace(word))
	text := strings.ToLower(surrounding)

	idx := indexWord(text, word)
	if idx < 0 {
		return ContextResult{
			IsNoun:     false,
			Confidence: 0.3,
			Evidence:   []string{"target word not found in context"},
		}
	}

	before := tokenize(text[clampRuneStart(text, maxInt(0, idx-a.window)):idx])
	after := tokenize(text[idx+len(word) : clampRuneStart(text, minInt(len(text), idx+len(word)+a.window))])

	var prev, prevPrev, next string
	if len(before) > 0 {
		prev = before[len(before)-1]
	}
	if len(before) > 1 {
		prevPrev = before[len(before)-2]
	}
	if len(after) > 0 {
		next = after[0]
	}

	// A word right after a personal pronoun is almost always the finite verb
	// of the clause, not a noun.
	if _, ok := personalPronounTokens[prev]; ok {
		return ContextResult{
			IsNoun:     false,
			Confidence: 0.85,
			Evidence:   []string{fmt.Sprintf("preceded by personal pronoun %q", prev)},
		}
	}

	res := ContextResult{Confidence: 0.5}

	if _, ok := articleTokens[prev]; ok {
		res.IsNoun = true
		res.Confidence = 0.95
		res.Evidence = append(res.Evidence, fmt.Sprintf("preceded by article %q", prev))
		if _, ok := prepositionTokens[prevPrev]; ok {
			res.Confidence += 0.03
			res.Evidence = append(res.Evidence, fmt.Sprintf("article follows preposition %q", prevPrev))
		}
	} else {
		if _, ok := prepositionTokens[prev]; ok {
			res.IsNoun = true
			res.Confidence += 0.15
			res.Evidence = append(res.Evidence, fmt.Sprintf("preceded by preposition %q", prev))
		}
		if isDeclinedAdjective(prev) {
			res.IsNoun = true
			res.Confidence += 0.10
			res.Evidence = append(res.Evidence, fmt.Sprintf("preceded by declined adjective %q", prev))
		}
	}

	if _, ok := finiteVerbTokens[next]; ok {
		res.IsNoun = true
		res.Confidence += 0.15
		res.Evidence = append(res.Evidence, fmt.Sprintf("followed by finite verb %q", next))
	}
	if _, ok := genitiveMarkerTokens[next]; ok {
		res.IsNoun = true
		res.Confidence += 0.10
		res.Evidence = append(res.Evidence, fmt.Sprintf("followed by genitive construction %q", next))
	}

	if res.Confidence > 0.98 {
		res.Confidence = 0.98
	}

	return res
}

// tokenize splits a window fragment into lowercase tokens. The prose
// tokenizer copes with punctuation stuck to words; on failure a whitespace
// split is good enough for a 20-character window.
func tokenize(fragment string) []string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}

	doc, err := prose.NewDocument(fragment,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return strings.Fields(fragment)
	}

	var tokens []string
	for _, tok := range doc.Tokens() {
		t := strings.ToLower(strings.TrimSpace(tok.Text))
		if t == "" || !hasLetter(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	if len(tokens) == 0 {
		return strings.Fields(fragment)
	}
	return tokens
}

func isDeclinedAdjective(token string) bool {
	if utf8.RuneCountInString(token) <= 3 {
		return false
	}
	if _, ok := articleTokens[token]; ok {
		return false
	}
	if _, ok := prepositionTokens[token]; ok {
		return false
	}
	for _, ending := range declinedAdjectiveEndings {
		if strings.HasSuffix(token, ending) {
			return true
		}
	}
	return false
}

// indexWord finds word in text at a token boundary.
func indexWord(text, word string) int {
	if word == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		beforeOK := i == 0 || !isWordByte(text[i-1])
		end := i + len(word)
		afterOK := end >= len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return i
		}
		from = i + len(word)
		if from >= len(text) {
			return -1
		}
	}
}

func isWordByte(b byte) bool {
	return b == '-' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b >= 0x80
}

func hasLetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= 0x80 {
			return true
		}
	}
	return false
}

func clampRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
