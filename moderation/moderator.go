// Package moderation censors chat content against a dictionary of words.
package moderation

import (
	"chat-relay/contract"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

var _ contract.ContentFilter = (*Moderator)(nil)

type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// NewModerator builds the Aho-Corasick automaton over the folded, deduplicated word list.
// Words that fold to nothing (pure punctuation) are ignored.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	patterns := lo.FilterMap(lo.Uniq(lo.Map(censoredWords, func(word string, _ int) string {
		folded, _ := fold(word)
		return string(folded)
	})), func(word string, _ int) ([]rune, bool) {
		return []rune(word), word != ""
	})
	slices.SortFunc(patterns, func(a, b []rune) int { return strings.Compare(string(a), string(b)) })

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	log.Debug("Moderation automaton built", "patterns", len(patterns))
	return &Moderator{matcher: machine, censoredChar: censoredChar}, nil
}

// Censor masks every rune of the original content that took part in a match,
// including the punctuation a user slipped between letters. Matched words are
// returned in order of appearance, in their folded form.
func (m *Moderator) Censor(content string) (string, []string) {
	folded, positions := fold(content)
	if len(folded) == 0 {
		return content, nil
	}
	hits := m.matcher.MultiPatternSearch(folded, false)
	if len(hits) == 0 {
		return content, nil
	}

	runes := []rune(content)
	words := make([]string, 0, len(hits))
	for _, hit := range hits {
		end := hit.Pos + len(hit.Word)
		if hit.Pos < 0 || end > len(positions) {
			continue
		}
		for i := positions[hit.Pos]; i <= positions[end-1]; i++ {
			runes[i] = m.censoredChar
		}
		words = append(words, string(hit.Word))
	}
	return string(runes), words
}

// fold lowercases, undoes common leet substitutions and drops separators.
// positions[i] is the index in []rune(input) of folded[i].
func fold(input string) (folded []rune, positions []int) {
	for i, r := range []rune(input) {
		r = unLeet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		positions = append(positions, i)
	}
	return folded, positions
}

var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

func unLeet(r rune) rune {
	if plain, ok := leet[r]; ok {
		return plain
	}
	return r
}
