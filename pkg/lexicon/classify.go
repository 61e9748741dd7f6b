// Package lexicon classifies places from their names and category labels.
//
// Every decision here is a pure function of normalized strings and the
// versioned tables in tables.go.
package lexicon

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Class is the tagged category of a place.
type Class int

// Classes.
const (
	Unknown Class = iota
	Meal
	Activity
	Nightlife
)

func (c Class) String() string {
	switch c {
	case Meal:
		return "meal"
	case Activity:
		return "activity"
	case Nightlife:
		return "nightlife"
	default:
		return "unknown"
	}
}

// Classification holds the individual lexicon hits for one place.
type Classification struct {
	Food      bool
	Override  bool
	Nightlife bool
	Sight     bool
}

// Inspect runs every lexicon against name and categories.
func Inspect(name string, categories []string) Classification {
	texts := normalize(name, categories)
	return Classification{
		Food:      anyTerm(texts, foodTerms),
		Override:  anyTerm(texts, overrideTerms),
		Nightlife: anyTerm(texts, nightlifeTerms),
		Sight:     anyTerm(texts, activityTerms),
	}
}

// IsMeal reports whether the place matched the food lexicon.
func (c Classification) IsMeal() bool {
	return c.Food
}

// IsActivity reports whether the place can fill an activity window: anything
// that is not food, or food that is also a destination.
func (c Classification) IsActivity() bool {
	return !c.Food || c.Override
}

// IsNightlife reports whether the place matched the nightlife lexicon.
func (c Classification) IsNightlife() bool {
	return c.Nightlife
}

// Class collapses the hits into a single tag. Nightlife wins over food so a
// gastropub is scheduled as an evening venue, and an override makes a food
// venue an activity.
func (c Classification) Class() Class {
	switch {
	case c.Nightlife:
		return Nightlife
	case c.Food && !c.Override:
		return Meal
	case c.Override || c.Sight:
		return Activity
	default:
		return Unknown
	}
}

// Pools reports which scheduling pools the place belongs to. Nightlife only
// joins the activity pool, where it is held to the evening window; a food
// venue that is also a destination joins both.
func (c Classification) Pools() (meal, activity bool) {
	switch c.Class() {
	case Meal:
		return true, false
	case Nightlife:
		return false, true
	case Activity:
		return c.Food, true
	default:
		return false, true
	}
}

// Traits returns the profile traits whose keywords substring-match any of the
// categories, in sorted order.
func Traits(categories []string) []string {
	lowered := make([]string, 0, len(categories))
	for _, c := range categories {
		lowered = append(lowered, strings.ToLower(c))
	}
	var out []string
	for trait, keywords := range traitKeywords {
		if matchesAny(lowered, keywords) {
			out = append(out, trait)
		}
	}
	slices.Sort(out)
	return out
}

// MatchesTrait reports whether any category substring-matches a keyword of trait.
func MatchesTrait(categories []string, trait string) bool {
	keywords, ok := traitKeywords[strings.ToLower(trait)]
	if !ok {
		return false
	}
	for _, c := range categories {
		if matchesAny([]string{strings.ToLower(c)}, keywords) {
			return true
		}
	}
	return false
}

// TraitKeywords returns the keyword list for trait, or nil.
func TraitKeywords(trait string) []string {
	return slices.Clone(traitKeywords[strings.ToLower(trait)])
}

// FoodTraits returns the trait names that count toward a foodie profile.
func FoodTraits() []string {
	return slices.Clone(foodTraits)
}

// BaselineFoodTags returns the tags always included in discovery.
func BaselineFoodTags() []string {
	return slices.Clone(baselineFoodTags)
}

// MatchesSlot reports whether name or categories contain a keyword for slot.
func MatchesSlot(slot, name string, categories []string) bool {
	return anyTerm(normalize(name, categories), slotKeywords[strings.ToLower(slot)])
}

// DurationFor returns the visit length in minutes for the first category
// matching the duration table.
func DurationFor(categories []string) int {
	texts := normalize("", categories)
	for _, d := range durations {
		if anyTerm(texts, []string{d.term}) {
			return d.minutes
		}
	}
	return DefaultDuration
}

func normalize(name string, categories []string) []string {
	out := make([]string, 0, len(categories)+1)
	if n := strings.ToLower(strings.TrimSpace(name)); n != "" {
		out = append(out, n)
	}
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(c, "_", " ")))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func anyTerm(texts, terms []string) bool {
	for _, text := range texts {
		for _, term := range terms {
			if containsWord(text, term) {
				return true
			}
		}
	}
	return false
}

func matchesAny(lowered, keywords []string) bool {
	for _, c := range lowered {
		for _, k := range keywords {
			if strings.Contains(c, k) {
				return true
			}
		}
	}
	return false
}

// containsWord reports whether term occurs in text bounded by non-letters,
// so "bar" matches "wine bar" but not "barber".
func containsWord(text, term string) bool {
	for start := 0; start <= len(text)-len(term); {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		if boundaryBefore(text, i) && (boundaryAfter(text, end) || pluralAt(text, end)) {
			return true
		}
		start = i + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r)
}

// pluralAt accepts a trailing "s" so "museums" matches "museum".
func pluralAt(s string, i int) bool {
	return i < len(s) && s[i] == 's' && boundaryAfter(s, i+1)
}
