// Package lexicon provides lexical analysis for incoming messages: it breaks
// text into tokens carrying a lemma, a part-of-speech tag, and a named-entity
// label. The Analyzer interface keeps the tagger pluggable so a richer
// implementation can substitute for the built-in rule-based one.
package lexicon

import "strings"

// POS is a coarse part-of-speech tag.
type POS string

const (
	Noun        POS = "NOUN"
	ProperNoun  POS = "PROPN"
	Verb        POS = "VERB"
	Pronoun     POS = "PRON"
	Adposition  POS = "ADP"
	Determiner  POS = "DET"
	Conjunction POS = "CCONJ"
	Number      POS = "NUM"
	Other       POS = "X"
)

// Entity labels a token as part of a named-entity span.
type Entity string

const (
	EntityNone   Entity = ""
	EntityPerson Entity = "PERSON"
	EntityDate   Entity = "DATE"
)

// Token is a single analyzed word.
type Token struct {
	Text   string
	Lemma  string
	POS    POS
	Entity Entity
}

// Analyzer turns a text segment into tokens.
type Analyzer interface {
	Analyze(text string) []Token
}

var pronouns = map[string]bool{
	"i": true, "me": true, "myself": true, "you": true, "he": true,
	"she": true, "it": true, "we": true, "they": true, "them": true,
	"her": true, "him": true, "us": true, "this": true, "that": true,
	"mine": true,
}

var adpositions = map[string]bool{
	"to": true, "for": true, "on": true, "at": true, "by": true,
	"of": true, "in": true, "from": true, "with": true, "due": true,
	"up": true, "out": true, "off": true,
}

var determiners = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "your": true,
	"our": true, "their": true, "his": true, "some": true, "all": true,
	"please": true,
}

var conjunctions = map[string]bool{
	"and": true, "or": true, "then": true,
}

var dateWords = map[string]bool{
	"today": true, "tomorrow": true, "tonight": true, "monday": true,
	"tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true, "day": true, "week": true,
	"weekday": true, "weekdays": true, "weekend": true, "weekends": true,
	"month": true, "year": true, "every": true, "next": true,
	"daily": true, "weekly": true, "monthly": true, "other": true,
	"morning": true, "evening": true, "noon": true, "am": true, "pm": true,
}

// Verbs the bot vocabulary knows outright. Anything else ending in "ing"
// is tagged as a gerund verb, which the extractor treats as a chore mention.
var knownVerbs = map[string]bool{
	"add": true, "create": true, "assign": true, "give": true,
	"remind": true, "schedule": true, "make": true, "do": true,
	"did": true, "mark": true, "done": true, "finish": true,
	"finished": true, "complete": true, "completed": true, "list": true,
	"show": true, "view": true, "claim": true, "take": true,
	"delete": true, "remove": true, "broadcast": true,
	"announce": true, "postpone": true, "reschedule": true, "move": true,
	"help": true, "set": true, "be": true, "is": true, "unassign": true,
	"get": true, "tell": true, "have": true, "want": true, "need": true,
}

// Irregular and inflected forms mapped back to their lemma.
var lemmaOverrides = map[string]string{
	"did":       "do",
	"doing":     "do",
	"finished":  "finish",
	"finishing": "finish",
	"completed": "complete",
	"marked":    "mark",
	"added":     "add",
	"created":   "create",
	"assigned":  "assign",
	"gave":      "give",
	"took":      "take",
	"deleted":   "delete",
	"removed":   "remove",
	"commands":  "command",
	"postponed": "postpone",
	"moved":     "move",
	"showed":    "show",
	"claimed":   "claim",
}

// Tagger is a deterministic rule-based Analyzer. It recognizes person
// names supplied at construction time (normally the alias table of the
// household directory) as PERSON entities.
type Tagger struct {
	names map[string]bool
}

// NewTagger builds a Tagger that tags the given names as PERSON entities.
// Names are matched case-insensitively.
func NewTagger(names []string) *Tagger {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return &Tagger{names: m}
}

// Analyze tokenizes text and tags each token. The input is lowercased;
// downstream matching is case-insensitive throughout.
func (t *Tagger) Analyze(text string) []Token {
	words := Tokenize(text)
	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, t.tag(w))
	}
	return tokens
}

func (t *Tagger) tag(word string) Token {
	tok := Token{Text: word, Lemma: lemma(word)}

	switch {
	case t.names[word]:
		tok.POS = ProperNoun
		tok.Entity = EntityPerson
	case pronouns[word]:
		tok.POS = Pronoun
	case conjunctions[word]:
		tok.POS = Conjunction
	case adpositions[word]:
		tok.POS = Adposition
	case determiners[word]:
		tok.POS = Determiner
	case dateWords[word]:
		tok.POS = Noun
		tok.Entity = EntityDate
	case isNumber(word):
		tok.POS = Number
	case knownVerbs[word] || knownVerbs[tok.Lemma]:
		tok.POS = Verb
	case strings.HasSuffix(word, "ing") && len(word) > 4:
		// Gerund: "vacuuming", "sweeping". Kept as VERB; the extractor
		// picks these up as chore mentions.
		tok.POS = Verb
	default:
		tok.POS = Noun
	}
	return tok
}

// Tokenize splits text into lowercase word tokens, dropping punctuation.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	var words []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}

func lemma(word string) string {
	if l, ok := lemmaOverrides[word]; ok {
		return l
	}
	return word
}

// Lemma maps a lowercase word to its lemma without full analysis.
func Lemma(word string) string { return lemma(word) }

func isNumber(word string) bool {
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(word) > 0
}

// IsAnaphor reports whether word is a bare anaphoric pronoun that can refer
// back to an earlier command ("do it", "remind her").
func IsAnaphor(word string) bool {
	switch word {
	case "it", "this", "that", "them", "her", "him":
		return true
	}
	return false
}
