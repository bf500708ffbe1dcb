package synth

import (
	"math/rand"
	"sort"
	"strings"
)

// Lexical variation keeps a finite template set from producing long runs
// of byte-identical text. Substitution is deliberately low probability so
// most items stay close to the curated templates.
const (
	synonymChance = 0.25
	fillerChance  = 0.1
)

// synonyms maps template words to interchangeable alternatives.
var synonyms = map[string][]string{
	"great":    {"fantastic", "really good", "solid"},
	"friendly": {"neighborly", "kind"},
	"sturdy":   {"solid", "well built"},
	"welcome":  {"appreciated", "encouraged"},
	"happy":    {"glad", "more than willing"},
	"reliable": {"dependable", "trustworthy"},
	"quiet":    {"peaceful", "calm"},
	"bright":   {"sunny", "light-filled"},
}

// fillers are occasional lead-ins prepended to bodies.
var fillers = []string{
	"Honestly, ",
	"Quick note: ",
	"Heads up: ",
	"For what it's worth, ",
}

// synonymWords is the sorted key list; map iteration order would break
// reproducibility under a seeded random source.
var synonymWords = func() []string {
	words := make([]string, 0, len(synonyms))
	for w := range synonyms {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}()

// vary applies synonym substitution and occasional filler insertion.
func vary(text string, rng *rand.Rand) string {
	for _, word := range synonymWords {
		alts := synonyms[word]
		if !strings.Contains(text, word) {
			continue
		}
		if rng.Float64() < synonymChance {
			text = strings.Replace(text, word, alts[rng.Intn(len(alts))], 1)
		}
	}
	if rng.Float64() < fillerChance {
		text = fillers[rng.Intn(len(fillers))] + lowerFirst(text)
	}
	return text
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if runes[0] >= 'A' && runes[0] <= 'Z' {
		runes[0] = runes[0] + ('a' - 'A')
	}
	return string(runes)
}
