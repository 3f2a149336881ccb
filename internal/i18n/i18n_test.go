package i18n

import (
	"strings"
	"testing"
)

func TestResolverDefaultLocale(t *testing.T) {
	if got := NewResolver("ko").DefaultLocale(); got != "ko" {
		t.Fatalf("expected ko, got %q", got)
	}
	// Unknown locales fall back to English.
	if got := NewResolver("xx").DefaultLocale(); got != "en" {
		t.Fatalf("expected en fallback, got %q", got)
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver("ko")

	tests := []struct {
		name     string
		locale   string
		key      string
		args     []any
		fallback string
		contains string
	}{
		{"korean_with_args", "ko", KeyBelowMinMyPrice, []any{100}, "fb", "100"},
		{"english_with_args", "en", KeyBelowMinMyPrice, []any{100}, "fb", "at least 100"},
		{"empty_locale_uses_default", "", KeyNotFoundProduct, nil, "fb", "상품"},
		{"unknown_locale_uses_default", "fr", KeyNotFoundProduct, nil, "fb", "상품"},
		{"unknown_key_uses_fallback", "ko", "no.such.key", nil, "Wrong Price", "Wrong Price"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := r.Resolve(test.locale, test.key, test.args, test.fallback)
			if !strings.Contains(got, test.contains) {
				t.Fatalf("Resolve(%q, %q) = %q, want substring %q", test.locale, test.key, got, test.contains)
			}
		})
	}
}
