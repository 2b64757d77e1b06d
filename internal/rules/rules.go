// Package rules holds the static element table: which elements each mode
// plays with, what every element beats, and the text shown when it wins.
package rules

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := modeElements[m]; !ok {
		return "", false
	}
	return m, true
}

// ElementsForMode returns the ordered element ids in play for mode.
// Unknown modes get the full set.
func ElementsForMode(mode Mode) []Element {
	els, ok := modeElements[mode]
	if !ok {
		els = AllElements
	}
	return slices.Clone(els)
}

// Allowed reports whether e may be played in mode.
func Allowed(mode Mode, e Element) bool {
	els, ok := modeElements[mode]
	if !ok {
		return false
	}
	return slices.Contains(els, e)
}

func Lookup(e Element) (Info, bool) {
	info, ok := catalog[e]
	if !ok {
		return Info{}, false
	}
	info.Beats = slices.Clone(info.Beats)
	return info, true
}

// Beats returns the elements e defeats. Unknown elements beat nothing.
func Beats(e Element) []Element {
	return slices.Clone(catalog[e].Beats)
}

// Defeats reports whether a's beats-set contains b.
func Defeats(a, b Element) bool {
	return slices.Contains(catalog[a].Beats, b)
}

func Emoji(e Element) string {
	return catalog[e].Emoji
}

// WinReason describes why winner beat loser, falling back to a generic
// "<Winner> beats <Loser>!" line when no curated text exists for the pair.
func WinReason(winner, loser Element) string {
	if r, ok := reasons[[2]Element{winner, loser}]; ok {
		return r
	}
	title := cases.Title(language.English)
	return fmt.Sprintf("%s beats %s!", title.String(string(winner)), title.String(string(loser)))
}
