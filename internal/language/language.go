// Package language normalizes language codes and renders display names
// for prompts, file suffixes, and upload manifests.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code    string // ISO 639-1
	display string
}

// languages that appear as caption suffixes in demo libraries
var known = []entry{
	{"en", "English"}, {"fr", "French"}, {"es", "Spanish"}, {"de", "German"},
	{"it", "Italian"}, {"pt", "Portuguese"}, {"ru", "Russian"}, {"zh", "Chinese"},
	{"ja", "Japanese"}, {"ko", "Korean"}, {"ar", "Arabic"}, {"hi", "Hindi"},
	{"nl", "Dutch"}, {"sv", "Swedish"}, {"fi", "Finnish"}, {"da", "Danish"},
	{"no", "Norwegian"}, {"pl", "Polish"}, {"tr", "Turkish"}, {"cs", "Czech"},
	{"hu", "Hungarian"}, {"el", "Greek"}, {"he", "Hebrew"}, {"th", "Thai"},
	{"vi", "Vietnamese"}, {"id", "Indonesian"}, {"ms", "Malay"}, {"ro", "Romanian"},
	{"uk", "Ukrainian"}, {"bg", "Bulgarian"}, {"hr", "Croatian"}, {"sr", "Serbian"},
	{"sk", "Slovak"}, {"sl", "Slovenian"}, {"et", "Estonian"}, {"lv", "Latvian"},
	{"lt", "Lithuanian"}, {"fa", "Persian"}, {"ur", "Urdu"},
}

var (
	byCode = make(map[string]*entry, len(known))
	byName = make(map[string]*entry, len(known))
)

func init() {
	for i := range known {
		e := &known[i]
		byCode[e.code] = e
		byName[strings.ToLower(e.display)] = e
	}
}

// Normalize returns the lowercase ISO 639-1 code for a code, tag, or
// English language name. Unknown values are lowercased and returned as is.
func Normalize(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if _, ok := byCode[value]; ok {
		return value
	}
	if e, ok := byName[value]; ok {
		return e.code
	}
	if tag, err := language.Parse(value); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	return value
}

// DisplayName returns the English name for a language code. "FR" and "fr"
// both yield "French". Unknown codes are returned uppercased.
func DisplayName(code string) string {
	norm := Normalize(code)
	if e, ok := byCode[norm]; ok {
		return e.display
	}
	if tag, err := language.Parse(norm); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsKnownSuffix reports whether code is one of the caption suffix codes.
func IsKnownSuffix(code string) bool {
	_, ok := byCode[strings.ToLower(code)]
	return ok
}

// NormalizeList normalizes and de-duplicates codes, keeping order.
func NormalizeList(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		code := Normalize(v)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
