// Package settings holds the user-facing preferences of the application,
// currently the UI locale, and negotiates it for incoming requests.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

const (
	LocaleZhTW = "zh-TW"
	LocaleEnUS = "en-US"

	// FallbackLocale is used whenever nothing better can be negotiated.
	FallbackLocale = LocaleZhTW

	// LocaleCookieName is the cookie the browser keeps the chosen locale in.
	LocaleCookieName = "i18n_redirected"
)

// SupportedLocales lists the locales in matching priority order.
var SupportedLocales = []string{LocaleZhTW, LocaleEnUS}

var ErrUnsupportedLocale = errors.New("unsupported locale")

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// LocaleKey is the context key the negotiated request locale is stored under.
const LocaleKey ContextKey = "locale"

var localeRule = "required,oneof=" + strings.Join(SupportedLocales, " ")

var supportedTags = func() []language.Tag {
	tags := make([]language.Tag, 0, len(SupportedLocales))
	for _, l := range SupportedLocales {
		tags = append(tags, language.MustParse(l))
	}
	return tags
}()

// Settings is the settings store. It is safe for concurrent use.
type Settings struct {
	mu       sync.RWMutex
	locale   string
	validate *validator.Validate
	matcher  language.Matcher
}

// New returns settings initialized with defaultLocale.
func New(defaultLocale string) (*Settings, error) {
	s := &Settings{
		validate: validator.New(),
		matcher:  language.NewMatcher(supportedTags),
	}
	if err := s.SetLocale(defaultLocale); err != nil {
		return nil, fmt.Errorf("in internal/settings/settings.go/New(): error while `s.SetLocale()` calling: %w", err)
	}

	return s, nil
}

// IsSupported reports whether locale is one of SupportedLocales.
func IsSupported(locale string) bool {
	for _, l := range SupportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

func (s *Settings) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.locale
}

// SetLocale switches the current locale. Unsupported values are rejected
// with ErrUnsupportedLocale and the current locale is kept.
func (s *Settings) SetLocale(locale string) error {
	if err := s.validate.Var(locale, localeRule); err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale

	return nil
}

// Negotiate picks the locale for a request. A supported cookie value wins;
// otherwise the Accept-Language header is matched against SupportedLocales.
// When neither helps, the current locale is used.
func (s *Settings) Negotiate(cookie, acceptLanguage string) string {
	if IsSupported(cookie) {
		return cookie
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return s.Locale()
	}

	_, idx, confidence := s.matcher.Match(tags...)
	if confidence == language.No {
		return s.Locale()
	}

	return SupportedLocales[idx]
}

// WithLocale stores locale in ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, LocaleKey, locale)
}

// LocaleFromContext returns the locale stored by WithLocale, or FallbackLocale.
func LocaleFromContext(ctx context.Context) string {
	if locale, ok := ctx.Value(LocaleKey).(string); ok && locale != "" {
		return locale
	}
	return FallbackLocale
}
