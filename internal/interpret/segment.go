package interpret

import (
	"regexp"
	"strings"

	"github.com/dustybot/dusty/internal/lexicon"
)

var thenRe = regexp.MustCompile(`(?i)\s+then\s+`)

// lookahead is how many tokens after "and" are checked for an intent
// keyword before treating the "and" as a clause boundary.
const lookahead = 3

// Segment splits a raw message into independent command clauses. "then" is
// the primary boundary (sequential actions). Failing that, "and" splits only
// when one of the next few words is an intent keyword, so "dishes and
// vacuuming" stays one clause while "add laundry and delete dishes" becomes
// two. Never fails; worst case the whole message is one segment.
func Segment(message string) []string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return []string{""}
	}

	if parts := thenRe.Split(msg, -1); len(parts) > 1 {
		return trimNonEmpty(parts, msg)
	}

	words := wordsWithOffsets(msg)
	var segs []string
	start := 0
	for i, w := range words {
		if !strings.EqualFold(w.text, "and") {
			continue
		}
		if !intentAhead(words, i+1) {
			continue
		}
		if piece := strings.TrimSpace(msg[start:w.start]); piece != "" {
			segs = append(segs, piece)
		}
		start = w.end
	}
	if piece := strings.TrimSpace(msg[start:]); piece != "" {
		segs = append(segs, piece)
	}
	if len(segs) == 0 {
		return []string{msg}
	}
	return segs
}

func intentAhead(words []offsetWord, from int) bool {
	for j := from; j < from+lookahead && j < len(words); j++ {
		lem := lexicon.Lemma(strings.ToLower(words[j].text))
		if _, ok := intentKeywords[lem]; ok {
			return true
		}
	}
	return false
}

type offsetWord struct {
	text       string
	start, end int
}

func wordsWithOffsets(s string) []offsetWord {
	var out []offsetWord
	i := 0
	for i < len(s) {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] != ' ' && s[j] != '\t' && s[j] != '\n' {
			j++
		}
		out = append(out, offsetWord{text: strings.Trim(s[i:j], ".,!?;"), start: i, end: j})
		i = j
	}
	return out
}

func trimNonEmpty(parts []string, fallback string) []string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{strings.TrimSpace(fallback)}
	}
	return out
}
