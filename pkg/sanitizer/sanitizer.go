package sanitizer

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// DefaultRegions are tried in order for phone numbers without a country code.
var DefaultRegions = []string{"IL", "US"}

// TrimAndNormalize trims s and collapses every whitespace run to one space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}
	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeID trims surrounding whitespace. Ids are otherwise opaque.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// NormalizeNotes keeps line breaks but drops trailing spaces on each line.
func NormalizeNotes(notes string) string {
	p := Pipeline{
		func(s string) string { return strings.ReplaceAll(s, "\r\n", "\n") },
		func(s string) string {
			lines := strings.Split(s, "\n")
			for i, l := range lines {
				lines[i] = strings.TrimRightFunc(l, unicode.IsSpace)
			}
			return strings.Join(lines, "\n")
		},
		strings.TrimSpace,
	}
	return p.Apply(notes)
}

// NormalizePhone formats phone as E.164. Numbers without a country code are
// parsed against DefaultRegions.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range DefaultRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsPossibleNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return phone
}

// NormalizeStringSlice applies normalizer to every item, dropping empty
// results and duplicates while keeping the first occurrence's order.
func NormalizeStringSlice(items []string, normalizer Strategy) []string {
	if items == nil {
		return nil
	}

	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		normalized := normalizer(item)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}

func NormalizeIDs(ids []string) []string {
	return NormalizeStringSlice(ids, NormalizeID)
}
