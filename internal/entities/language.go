package entities

// Language is the per-sender language tag. The empty value means "not chosen yet"
// (or, because lookups are failure-open, "the store could not tell us").
type Language string

const (
	LanguageSpanish Language = "es"
	LanguageEnglish Language = "en"
)

// Button ids the dispatcher recognizes.
const (
	ButtonSelectSpanish = "select_es"
	ButtonSelectEnglish = "select_en"
	ButtonYes           = "btn_si"
	ButtonNo            = "btn_no"
	ButtonMaybe         = "btn_talvez"
)

// LanguageFromButton maps a language-selection button id to its language.
func LanguageFromButton(id string) (Language, bool) {
	switch id {
	case ButtonSelectSpanish:
		return LanguageSpanish, true
	case ButtonSelectEnglish:
		return LanguageEnglish, true
	}
	return "", false
}
