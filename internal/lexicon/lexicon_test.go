package lexicon

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "add dishes", []string{"add", "dishes"}},
		{"punctuation dropped", "Done, with the dishes!", []string{"done", "with", "the", "dishes"}},
		{"contractions kept", "I'll take it", []string{"i'll", "take", "it"}},
		{"numbers", "on the 15th of every month", []string{"on", "the", "15th", "of", "every", "month"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTaggerPersonEntity(t *testing.T) {
	tagger := NewTagger([]string{"becky", "Mike"})

	tokens := tagger.Analyze("add dishes for becky")
	var person *Token
	for i := range tokens {
		if tokens[i].Entity == EntityPerson {
			person = &tokens[i]
		}
	}
	if person == nil {
		t.Fatal("no PERSON token found")
	}
	if person.Text != "becky" || person.POS != ProperNoun {
		t.Errorf("person token = %+v, want becky/PROPN", person)
	}

	// Names are matched case-insensitively regardless of registration case.
	tokens = tagger.Analyze("give it to MIKE")
	found := false
	for _, tok := range tokens {
		if tok.Text == "mike" && tok.Entity == EntityPerson {
			found = true
		}
	}
	if !found {
		t.Error("uppercase registered name not tagged as PERSON")
	}
}

func TestTaggerPOS(t *testing.T) {
	tagger := NewTagger(nil)

	tests := []struct {
		word string
		pos  POS
	}{
		{"add", Verb},
		{"dishes", Noun},
		{"it", Pronoun},
		{"to", Adposition},
		{"the", Determiner},
		{"and", Conjunction},
		{"3", Number},
		{"vacuuming", Verb}, // gerund
		{"trash", Noun},     // chore word, not a verb
	}
	for _, tt := range tests {
		tokens := tagger.Analyze(tt.word)
		if len(tokens) != 1 {
			t.Fatalf("Analyze(%q) returned %d tokens", tt.word, len(tokens))
		}
		if tokens[0].POS != tt.pos {
			t.Errorf("POS(%q) = %s, want %s", tt.word, tokens[0].POS, tt.pos)
		}
	}
}

func TestTaggerDateEntities(t *testing.T) {
	tagger := NewTagger(nil)
	tokens := tagger.Analyze("remind me every saturday and tomorrow")

	dates := 0
	for _, tok := range tokens {
		if tok.Entity == EntityDate {
			dates++
		}
	}
	// every, saturday, tomorrow
	if dates != 3 {
		t.Errorf("got %d DATE tokens, want 3", dates)
	}
}

func TestLemma(t *testing.T) {
	tests := []struct{ in, want string }{
		{"did", "do"},
		{"finished", "finish"},
		{"commands", "command"},
		{"postponed", "postpone"},
		{"dishes", "dishes"}, // no override, identity
	}
	for _, tt := range tests {
		if got := Lemma(tt.in); got != tt.want {
			t.Errorf("Lemma(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsAnaphor(t *testing.T) {
	for _, w := range []string{"it", "this", "that", "them", "her", "him"} {
		if !IsAnaphor(w) {
			t.Errorf("IsAnaphor(%q) = false, want true", w)
		}
	}
	for _, w := range []string{"i", "me", "you", "dishes"} {
		if IsAnaphor(w) {
			t.Errorf("IsAnaphor(%q) = true, want false", w)
		}
	}
}
