package lexicon

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/artikelservice/backend/internal/storage/models"
)

// Column layout of the source dataset. The export carries 76 columns; only a
// handful matter here. The genus column holds the primary gender, the four
// numbered genus columns hold genders of further senses; the plural columns
// follow the same scheme.
const (
	columnCount = 76

	colLemma = 0
	colPOS   = 1
	colGenus = 2

	genusAltFirst = 3
	genusAltLast  = 6

	colNominativePlural = 24

	pluralAltFirst = 25
	pluralAltLast  = 28
)

const (
	minLemmaLen = 2
	maxLemmaLen = 50
)

// Parser turns the raw dataset payload into keyed lexical records.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse walks the payload line by line. The header row is discarded. Rows
// that fail validation are skipped and counted; parsing never aborts on a
// bad row.
func (p *Parser) Parse(payload string) (map[string]models.LexicalRecord, *models.ProcessingStats) {
	started := time.Now()
	stats := &models.ProcessingStats{
		RunID:     uuid.New().String(),
		StartedAt: started,
	}

	records := make(map[string]models.LexicalRecord)

	lines := strings.Split(payload, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		stats.TotalRows++

		rec, err := p.parseRow(line)
		if err != nil {
			stats.SkippedRows++
			stats.AddError(fmt.Sprintf("line %d: %v", i+1, err))
			continue
		}

		if len(rec.AlternativeArticles) > 0 {
			stats.MultiGenderRows++
		}
		if len(rec.AlternativePlurals) > 0 {
			stats.MultiPluralRows++
		}

		// Duplicate lemmas: the entry with the higher computed confidence wins.
		if existing, ok := records[rec.Word]; ok && existing.Confidence >= rec.Confidence {
			stats.SkippedRows++
			continue
		}
		records[rec.Word] = rec
		stats.ParsedRows++
	}

	stats.DurationMS = time.Since(started).Milliseconds()
	return records, stats
}

func (p *Parser) parseRow(line string) (models.LexicalRecord, error) {
	fields := splitRow(line)
	if len(fields) < columnCount {
		return models.LexicalRecord{}, fmt.Errorf("malformed row: %d columns, want %d", len(fields), columnCount)
	}

	lemma := strings.TrimSpace(fields[colLemma])
	lemmaLen := utf8.RuneCountInString(lemma)
	if lemmaLen < minLemmaLen || lemmaLen > maxLemmaLen {
		return models.LexicalRecord{}, fmt.Errorf("lemma %q out of length bounds", lemma)
	}

	if !strings.Contains(strings.ToLower(fields[colPOS]), "substantiv") {
		return models.LexicalRecord{}, fmt.Errorf("not a noun: %q", fields[colPOS])
	}

	var genders []models.Article
	for _, col := range genderColumns() {
		token := fields[col]
		if strings.TrimSpace(token) == "" {
			continue
		}
		article, ok := models.ParseArticle(token)
		if !ok {
			// Unrecognized genus tokens are dropped, not fatal.
			continue
		}
		if !containsArticle(genders, article) {
			genders = append(genders, article)
		}
	}
	if len(genders) == 0 {
		return models.LexicalRecord{}, fmt.Errorf("no valid gender for %q", lemma)
	}

	word := strings.ToLower(lemma)

	rec := models.LexicalRecord{
		Word:        word,
		Article:     genders[0],
		LastUpdated: time.Now(),
	}
	if len(genders) > 1 {
		rec.AlternativeArticles = genders[1:]
		rec.HasMultipleMeanings = true
	}

	var plurals []string
	for _, col := range pluralColumns() {
		plural := strings.TrimSpace(fields[col])
		if plural == "" || strings.EqualFold(plural, lemma) {
			continue
		}
		if !containsString(plurals, plural) {
			plurals = append(plurals, plural)
		}
	}
	if len(plurals) > 0 {
		rec.Plural = plurals[0]
		if len(plurals) > 1 {
			rec.AlternativePlurals = plurals[1:]
		}
	}

	rec.Confidence = recordConfidence(lemma, lemmaLen, len(genders), rec.Plural != "")

	return rec, nil
}

func genderColumns() []int {
	cols := []int{colGenus}
	for c := genusAltFirst; c <= genusAltLast; c++ {
		cols = append(cols, c)
	}
	return cols
}

func pluralColumns() []int {
	cols := []int{colNominativePlural}
	for c := pluralAltFirst; c <= pluralAltLast; c++ {
		cols = append(cols, c)
	}
	return cols
}

func recordConfidence(lemma string, lemmaLen, genderCount int, hasPlural bool) float64 {
	conf := 0.9
	if strings.Contains(lemma, "-") {
		conf -= 0.1
	}
	if lemmaLen > 15 {
		conf -= 0.05
	}
	if genderCount > 1 {
		conf -= 0.15
	}
	if hasPlural {
		conf += 0.05
	}
	if conf < 0.1 {
		conf = 0.1
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

// splitRow splits one raw line into fields. Fields may be double-quote
// delimited, may contain literal commas inside quotes, and escape a quote as
// a doubled quote character, so the line is walked character by character
// tracking in-quote state.
func splitRow(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}
	fields = append(fields, field.String())

	return fields
}

func containsArticle(list []models.Article, a models.Article) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
