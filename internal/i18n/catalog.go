// Package i18n holds the compiled-in phrase catalog for the bot's two
// languages. Unknown languages fall back to English; a key missing from the
// English table is a configuration error and is rejected at startup.
package i18n

import (
	"fmt"

	"ticallbot/internal/entities"
)

// DefaultLanguage is used whenever the requested language is not in the catalog.
const DefaultLanguage = entities.LanguageEnglish

// MessageKey identifies one canned reply in the catalog.
type MessageKey string

const (
	KeyWelcomeInitial   MessageKey = "welcome_initial"
	KeyLangPrompt       MessageKey = "lang_prompt"
	KeySelectedLanguage MessageKey = "selected_language"
	KeyInvalidOption    MessageKey = "invalid_option"
	KeyDefaultResponse  MessageKey = "default_response"
	KeyChangeLanguage   MessageKey = "change_language"
	KeyGreetingCaption  MessageKey = "greeting_caption"
	KeyGreetingQuestion MessageKey = "greeting_question"
	KeyJob              MessageKey = "job"
	KeyAdvice           MessageKey = "advice"
	KeyButtonYes        MessageKey = "button_yes"
	KeyButtonMaybe      MessageKey = "button_maybe"
)

// RequiredKeys is the full set the dispatcher depends on. main validates the
// catalog against it before serving traffic.
var RequiredKeys = []MessageKey{
	KeyWelcomeInitial, KeyLangPrompt, KeySelectedLanguage, KeyInvalidOption,
	KeyDefaultResponse, KeyChangeLanguage, KeyGreetingCaption, KeyGreetingQuestion,
	KeyJob, KeyAdvice, KeyButtonYes, KeyButtonMaybe,
}

// Catalog is an immutable (language, key) -> text table.
type Catalog struct {
	messages map[entities.Language]map[MessageKey]string
}

// NewCatalog returns the built-in es/en catalog.
func NewCatalog() *Catalog {
	return &Catalog{messages: map[entities.Language]map[MessageKey]string{
		entities.LanguageSpanish: {
			KeyWelcomeInitial:   "👋😊!Hola¡ Bienvenido a TicAll Media.",
			KeyLangPrompt:       "Por favor, elige tu idioma: 👆",
			KeySelectedLanguage: "👌!Idioma configurado en Español¡.",
			KeyInvalidOption:    "Opción no válida. Por favor, selecciona.",
			KeyDefaultResponse:  "¿En qué puedo ayudarte?",
			KeyChangeLanguage:   "Claro, ¿a que Idioma te gustaría cambiar?.",
			KeyGreetingCaption:  "¡Saludos! 🤖 ¿Intrigado por una estrategia de marketing más inteligente?",
			KeyGreetingQuestion: "En TicAll Media, tenemos ideas que podrían sorprenderte.\n\n¿Te animas a explorar?",
			KeyJob:              "💼 ¿En que industria te desempeñas?",
			KeyAdvice:           "🧐¿Buscas asesoría sobre algún servicio especial? ",
			KeyButtonYes:        "Si",
			KeyButtonMaybe:      "Tal vez",
		},
		entities.LanguageEnglish: {
			KeyWelcomeInitial:   "👋😊Hello! Welcome to TicAll Media.",
			KeyLangPrompt:       "Please choose your language: 👆",
			KeySelectedLanguage: "👌Language set to English.",
			KeyInvalidOption:    "Invalid option. Please select.",
			KeyDefaultResponse:  "How can I help you?",
			KeyChangeLanguage:   "Sure, which language would you like to change to?",
			KeyGreetingCaption:  "Greetings! 🤖 Intrigued by a smarter marketing strategy?",
			KeyGreetingQuestion: "At TicAll Media, we have ideas that might surprise you. Are you ready to explore?",
			KeyJob:              "💼 What industry do you work in?",
			KeyAdvice:           "🧐You are looking for advice on a special service? ",
			KeyButtonYes:        "Yes",
			KeyButtonMaybe:      "Maybe",
		},
	}}
}

// Lookup returns the phrase for (lang, key). An unrecognized language falls
// back to English. Lookup assumes the catalog passed Validate; a key absent
// even from English returns the key itself so the gap is visible, not silent.
func (c *Catalog) Lookup(lang entities.Language, key MessageKey) string {
	table, ok := c.messages[lang]
	if !ok {
		table = c.messages[DefaultLanguage]
	}
	if text, ok := table[key]; ok {
		return text
	}
	if text, ok := c.messages[DefaultLanguage][key]; ok {
		return text
	}
	return string(key)
}

// Validate checks that every key exists in every language table. Called once
// at startup; a failure here is fatal.
func (c *Catalog) Validate(keys ...MessageKey) error {
	for lang, table := range c.messages {
		for _, key := range keys {
			if _, ok := table[key]; !ok {
				return fmt.Errorf("i18n: missing phrase key %q for language %q", key, lang)
			}
		}
	}
	return nil
}
