// Package i18n centralizes internationalization helpers and resources.
// It initializes the `go-i18n` bundle from the embedded TOML catalogs,
// determines the active language from requests, and translates form
// error kinds and field labels.
package i18n

import (
	"embed"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"omvsetup/constants"
	"omvsetup/logger"
)

// Common constants used by the i18n package.
const (
	// CookieNameLang is the cookie storing the user's preferred language.
	CookieNameLang = "omvsetup_lang"
	// QueryParamLang is the URL query parameter to switch language.
	QueryParamLang = "lang"
	// HeaderAcceptLanguage is the HTTP header used for language negotiation.
	HeaderAcceptLanguage = "Accept-Language"
	// DefaultLang is the fallback language when none is specified.
	DefaultLang = constants.DefaultLanguage
	// CookieMaxAge defines the language cookie lifetime.
	CookieMaxAge = 365 * 24 * time.Hour
)

//go:embed locales/*.toml
var locales embed.FS

// Bundle is the global i18n bundle.
var Bundle *i18n.Bundle

var initOnce sync.Once

var (
	supportedTags  = []language.Tag{language.English, language.French}
	supportedCodes = map[string]struct{}{"en": {}, "fr": {}}
)

// InitI18n initializes the internationalization bundle. Safe to call more than once.
func InitI18n() {
	initOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		for _, name := range []string{"active.en.toml", "active.fr.toml"} {
			if _, err := b.LoadMessageFileFS(locales, "locales/"+name); err != nil {
				logger.Get().Error().Err(err).Str("file", name).Msg("Failed to load translation file")
				continue
			}
			logger.Get().Debug().Str("file", name).Msg("Translation file loaded successfully")
		}
		Bundle = b
	})
}

// getLocalizer creates a localizer for lang, falling back to the default language.
func getLocalizer(lang string) *i18n.Localizer {
	if lang == "" {
		lang = DefaultLang
	}
	InitI18n()
	return i18n.NewLocalizer(Bundle, lang, DefaultLang)
}

// GetLocalizer creates a new localizer for the language specified in the request.
func GetLocalizer(r *http.Request) *i18n.Localizer {
	return getLocalizer(GetLanguage(r))
}

// Localize translates a message ID to the specified language via the provided localizer.
// If the translation fails, it returns the message ID and logs a warning.
func Localize(localizer *i18n.Localizer, messageID string) string {
	if localizer == nil || messageID == "" {
		return messageID
	}

	localized, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		logger.Get().Warn().Err(err).Str("message_id", messageID).Msg("Translation not found")
		return messageID
	}
	return localized
}

// localizeOr translates messageID, returning fallback silently when it is unknown.
func localizeOr(localizer *i18n.Localizer, messageID, fallback string) string {
	if localizer == nil {
		return fallback
	}
	localized, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		return fallback
	}
	return localized
}

// FormErrors translates field error kinds. Unknown kinds, such as free-form
// diagnostics from the appliance, are passed through unchanged.
func FormErrors(localizer *i18n.Localizer, errs map[string]string) map[string]string {
	out := make(map[string]string, len(errs))
	for field, kind := range errs {
		out[field] = localizeOr(localizer, constants.FormErrorKey(kind), kind)
	}
	return out
}

// FieldLabel returns the translated label of a form field.
func FieldLabel(localizer *i18n.Localizer, field string) string {
	return localizeOr(localizer, constants.FieldLabelKey(field), field)
}

// GetLanguage extracts the language from the request: param > cookie > Accept-Language > default.
func GetLanguage(r *http.Request) string {
	normalize := func(code string) string {
		code = strings.TrimSpace(strings.ToLower(code))
		if i := strings.Index(code, "-"); i > 0 {
			code = code[:i]
		}
		if _, ok := supportedCodes[code]; ok {
			return code
		}
		return DefaultLang
	}

	if lang := strings.TrimSpace(r.URL.Query().Get(QueryParamLang)); lang != "" {
		return normalize(lang)
	}

	if cookie, err := r.Cookie(CookieNameLang); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return normalize(cookie.Value)
	}

	acceptLang := strings.TrimSpace(r.Header.Get(HeaderAcceptLanguage))
	if acceptLang != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLang); err == nil {
			matcher := language.NewMatcher(supportedTags)
			tag, _, _ := matcher.Match(tags...)
			base, _ := tag.Base()
			code := base.String()
			if _, ok := supportedCodes[code]; ok {
				return code
			}
		}
	}

	return DefaultLang
}
