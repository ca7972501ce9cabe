package detect

import "strings"

// BlacklistResult is the exclusion classifier's verdict for one word.
type BlacklistResult struct {
	Blocked    bool
	Reason     string
	Category   string
	Confidence float64
}

type blacklistCategory struct {
	name       string
	reason     string
	confidence float64
	words      map[string]struct{}
}

// Blacklist holds categorized closed word lists. German articles cannot
// attach to these forms, so a hit rejects the word outright. Categories are
// checked in a fixed order; a word living in several lists keeps its first
// classification.
type Blacklist struct {
	categories []blacklistCategory
}

func NewBlacklist() *Blacklist {
	return &Blacklist{categories: []blacklistCategory{
		{
			name:       "preposition",
			reason:     "prepositions never carry an article",
			confidence: 0.99,
			words: wordSet(
				"in", "an", "auf", "unter", "über", "vor", "hinter", "neben",
				"zwischen", "mit", "nach", "bei", "seit", "von", "zu", "aus",
				"durch", "für", "gegen", "ohne", "um", "bis", "trotz",
				"während", "wegen", "statt", "ab", "entlang", "gegenüber",
			),
		},
		{
			name:       "conjunction",
			reason:     "conjunctions never carry an article",
			confidence: 0.99,
			words: wordSet(
				"und", "oder", "aber", "denn", "sondern", "weil", "dass",
				"wenn", "als", "ob", "obwohl", "damit", "falls", "sowie",
				"sowohl", "weder", "bevor", "nachdem", "indem", "sobald",
			),
		},
		{
			name:       "pronoun",
			reason:     "pronouns and determiners are not nouns",
			confidence: 0.98,
			words: wordSet(
				"ich", "du", "er", "sie", "es", "wir", "ihr", "mich", "dich", "ihn",
				"uns", "euch", "mir", "dir", "ihm", "ihnen", "mein", "dein",
				"ihre", "unser", "euer", "dieser", "diese", "dieses", "jener",
				"jene", "jenes", "welcher", "welche", "welches", "etwas",
				"nichts", "jemand", "niemand", "man", "alle", "alles",
				"einige", "viele", "wenige", "jeder", "jede", "jedes", "kein",
				"keine", "der", "die", "das", "ein", "eine",
			),
		},
		{
			name:       "verb",
			reason:     "finite verb form",
			confidence: 0.97,
			words: wordSet(
				"sein", "bin", "bist", "ist", "sind", "seid", "war", "waren",
				"haben", "habe", "hast", "hat", "habt", "hatte", "hatten",
				"werden", "werde", "wirst", "wird", "werdet", "wurde", "wurden",
				"gehen", "gehe", "gehst", "geht", "ging", "gingen", "gegangen",
				"kommen", "komme", "kommst", "kommt", "kam", "kamen",
				"machen", "mache", "machst", "macht", "machte", "machten",
				"sagen", "sage", "sagst", "sagt", "sagte", "sagten",
				"sehen", "sehe", "siehst", "sieht", "sah", "sahen",
				"geben", "gebe", "gibst", "gibt", "gab", "gaben",
				"nehmen", "nehme", "nimmst", "nimmt", "nahm", "nahmen",
				"können", "kann", "kannst", "könnt", "konnte", "konnten",
				"müssen", "muss", "musst", "müsst", "musste", "mussten",
				"wollen", "will", "willst", "wollt", "wollte", "wollten",
				"sollen", "soll", "sollst", "sollt", "sollte", "sollten",
				"dürfen", "darf", "darfst", "dürft", "durfte", "durften",
				"mögen", "mag", "magst", "mögt", "mochte", "möchte", "möchten",
				"wissen", "weiß", "weißt", "wisst", "wusste", "wussten",
			),
		},
		{
			name:       "numeral",
			reason:     "numerals are not gendered nouns",
			confidence: 0.97,
			words: wordSet(
				"null", "eins", "zwei", "drei", "vier", "fünf", "sechs",
				"sieben", "acht", "neun", "zehn", "elf", "zwölf", "dreizehn",
				"zwanzig", "dreißig", "vierzig", "fünfzig", "hundert",
				"tausend", "erste", "zweite", "dritte", "vierte", "beide",
			),
		},
		{
			name:       "adverb",
			reason:     "adverbs never carry an article",
			confidence: 0.96,
			words: wordSet(
				"sehr", "oft", "immer", "nie", "niemals", "heute", "morgen",
				"gestern", "hier", "dort", "jetzt", "bald", "schon", "noch",
				"wieder", "vielleicht", "zusammen", "fast", "ganz", "kaum",
				"gern", "gerne", "selten", "manchmal", "überall", "nirgends",
				"dann", "danach", "vorher", "inzwischen", "sofort", "gleich",
			),
		},
		{
			name:       "particle",
			reason:     "particles, interjections and greetings are not nouns",
			confidence: 0.96,
			words: wordSet(
				"ja", "nein", "doch", "mal", "halt", "eben", "bitte", "danke",
				"hallo", "tschüss", "genau", "klar", "okay", "ach", "oh",
				"na", "naja", "also", "eigentlich", "übrigens", "nämlich",
			),
		},
		{
			name:       "adjective",
			reason:     "base-form adjective",
			confidence: 0.95,
			words: wordSet(
				"schnell", "langsam", "groß", "klein", "gut", "schlecht",
				"schön", "hässlich", "alt", "jung", "neu", "lang", "kurz",
				"hoch", "tief", "stark", "schwach", "warm", "kalt", "heiß",
				"hell", "dunkel", "schwer", "leicht", "früh", "spät", "laut",
				"leise", "voll", "leer", "teuer", "billig", "reich", "arm",
				"breit", "schmal", "dick", "dünn", "weich", "hart", "nass",
				"trocken", "sauber", "schmutzig", "müde", "wach", "froh",
				"traurig", "wichtig", "einfach", "schwierig", "richtig",
				"falsch", "frei", "rot", "blau", "grün", "gelb", "schwarz",
				"weiß", "grau", "braun",
			),
		},
	}}
}

// Check is a pure lookup against the compiled lists.
func (b *Blacklist) Check(word string) BlacklistResult {
	word = strings.ToLower(strings.TrimSpace(word))
	for _, cat := range b.categories {
		if _, ok := cat.words[word]; ok {
			return BlacklistResult{
				Blocked:    true,
				Reason:     cat.reason,
				Category:   cat.name,
				Confidence: cat.confidence,
			}
		}
	}
	return BlacklistResult{}
}

// Words lists every blocked form with its category. Used by tests and
// diagnostics.
func (b *Blacklist) Words() map[string]string {
	out := make(map[string]string)
	for _, cat := range b.categories {
		for w := range cat.words {
			if _, seen := out[w]; !seen {
				out[w] = cat.name
			}
		}
	}
	return out
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
