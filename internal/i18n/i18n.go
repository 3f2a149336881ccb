// Package i18n resolves localizable user-facing messages.
// A message is addressed by locale and key; when the key is missing for
// the requested locale the default locale is consulted, and when that
// also misses the caller's fallback string is returned as-is.
package i18n

import "fmt"

// Message keys used by the product service.
const (
	KeyBelowMinMyPrice = "below.min.my.price"
	KeyNotFoundProduct = "not.found.product"
)

// bundles holds the built-in message catalogs. Messages with arguments
// use fmt verbs and are interpolated at resolve time.
var bundles = map[string]map[string]string{
	"en": {
		KeyBelowMinMyPrice: "Invalid target price. Please set it to at least %d.",
		KeyNotFoundProduct: "Product not found.",
	},
	"ko": {
		KeyBelowMinMyPrice: "유효하지 않은 관심 가격입니다. 최소 %d원 이상으로 설정해 주세요.",
		KeyNotFoundProduct: "해당 상품을 찾을 수 없습니다.",
	},
}

// Resolver looks up localized messages with a fixed fallback.
type Resolver struct {
	defaultLocale string
}

// NewResolver creates a Resolver. An unknown default locale falls back
// to "en".
func NewResolver(defaultLocale string) *Resolver {
	if _, ok := bundles[defaultLocale]; !ok {
		defaultLocale = "en"
	}
	return &Resolver{defaultLocale: defaultLocale}
}

// DefaultLocale returns the resolver's default locale.
func (r *Resolver) DefaultLocale() string {
	return r.defaultLocale
}

// Resolve returns the message for key in the given locale, interpolating
// args when present. An empty locale means the default locale. The
// fallback string is returned verbatim when no catalog has the key.
func (r *Resolver) Resolve(locale, key string, args []any, fallback string) string {
	if locale == "" {
		locale = r.defaultLocale
	}

	msg, ok := lookup(locale, key)
	if !ok {
		msg, ok = lookup(r.defaultLocale, key)
	}
	if !ok {
		return fallback
	}

	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func lookup(locale, key string) (string, bool) {
	bundle, ok := bundles[locale]
	if !ok {
		return "", false
	}
	msg, ok := bundle[key]
	return msg, ok
}
