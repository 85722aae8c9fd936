package detect

import "strings"

// Language is a declared spoken-language tag. Scoring applies
// per-language calibration, so the tag must come from the supported set.
type Language string

const (
	LanguageTamil     Language = "tamil"
	LanguageEnglish   Language = "english"
	LanguageHindi     Language = "hindi"
	LanguageMalayalam Language = "malayalam"
	LanguageTelugu    Language = "telugu"
)

// SupportedLanguages is the closed language set. The HTTP layer exposes
// this slice verbatim so the listing endpoint can never drift from what
// the scorer accepts.
var SupportedLanguages = []Language{
	LanguageTamil,
	LanguageEnglish,
	LanguageHindi,
	LanguageMalayalam,
	LanguageTelugu,
}

// ParseLanguage normalizes a tag string into a supported Language.
func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, sl := range SupportedLanguages {
		if l == sl {
			return l, true
		}
	}
	return "", false
}

// LanguageStrings returns the supported set as plain strings for
// response payloads.
func LanguageStrings() []string {
	out := make([]string, len(SupportedLanguages))
	for i, l := range SupportedLanguages {
		out[i] = string(l)
	}
	return out
}
