package detect

import (
	"strings"

	"github.com/artikelservice/backend/internal/storage/models"
)

// ExactEntry resolves a known ambiguous or homonymous word to its most
// frequent gender. The alternative carries the other sense.
type ExactEntry struct {
	Article    models.Article
	Meaning    string
	AltArticle models.Article
	AltMeaning string
	Confidence float64
}

// ExactMatch is a small curated table for words the bulk dataset gets wrong
// or ambiguous. Keys are lowercase.
type ExactMatch struct {
	entries map[string]ExactEntry
}

func NewExactMatch() *ExactMatch {
	return &ExactMatch{entries: map[string]ExactEntry{
		"bank":      {Article: models.ArticleDie, Meaning: "Sitzbank / Geldinstitut", Confidence: 0.95},
		"see":       {Article: models.ArticleDer, Meaning: "Binnengewässer", AltArticle: models.ArticleDie, AltMeaning: "Meer", Confidence: 0.90},
		"band":      {Article: models.ArticleDas, Meaning: "Gewebestreifen", AltArticle: models.ArticleDie, AltMeaning: "Musikgruppe", Confidence: 0.88},
		"leiter":    {Article: models.ArticleDie, Meaning: "Steiggerät", AltArticle: models.ArticleDer, AltMeaning: "Führungsperson", Confidence: 0.85},
		"tor":       {Article: models.ArticleDas, Meaning: "große Tür / Treffer", AltArticle: models.ArticleDer, AltMeaning: "törichter Mensch", Confidence: 0.90},
		"steuer":    {Article: models.ArticleDie, Meaning: "Abgabe", AltArticle: models.ArticleDas, AltMeaning: "Lenkvorrichtung", Confidence: 0.85},
		"schild":    {Article: models.ArticleDas, Meaning: "Hinweistafel", AltArticle: models.ArticleDer, AltMeaning: "Schutzwaffe", Confidence: 0.85},
		"erbe":      {Article: models.ArticleDas, Meaning: "Hinterlassenschaft", AltArticle: models.ArticleDer, AltMeaning: "erbende Person", Confidence: 0.82},
		"kiefer":    {Article: models.ArticleDer, Meaning: "Knochen", AltArticle: models.ArticleDie, AltMeaning: "Nadelbaum", Confidence: 0.82},
		"gehalt":    {Article: models.ArticleDas, Meaning: "Bezahlung", AltArticle: models.ArticleDer, AltMeaning: "Anteil", Confidence: 0.85},
		"verdienst": {Article: models.ArticleDer, Meaning: "Einkommen", AltArticle: models.ArticleDas, AltMeaning: "Leistung", Confidence: 0.82},
		"messer":    {Article: models.ArticleDas, Meaning: "Schneidwerkzeug", AltArticle: models.ArticleDer, AltMeaning: "Messgerät", Confidence: 0.90},
		"taube":     {Article: models.ArticleDie, Meaning: "Vogel", Confidence: 0.88},
		"moment":    {Article: models.ArticleDer, Meaning: "Augenblick", AltArticle: models.ArticleDas, AltMeaning: "physikalische Größe", Confidence: 0.90},
		"teil":      {Article: models.ArticleDer, Meaning: "Anteil", AltArticle: models.ArticleDas, AltMeaning: "Einzelstück", Confidence: 0.85},
		"paar":      {Article: models.ArticleDas, Meaning: "Zweiergruppe", Confidence: 0.90},
		"weise":     {Article: models.ArticleDie, Meaning: "Art und Weise", AltArticle: models.ArticleDer, AltMeaning: "weiser Mensch", Confidence: 0.82},
	}}
}

func (e *ExactMatch) Lookup(word string) (ExactEntry, bool) {
	entry, ok := e.entries[strings.ToLower(strings.TrimSpace(word))]
	return entry, ok
}
