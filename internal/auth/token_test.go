package auth

import (
	"strings"
	"testing"
)

func TestGenerateSessionToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if !strings.HasPrefix(token, "sw_") {
		t.Errorf("Token should have sw_ prefix, got: %s", token)
	}
	if !ValidateTokenFormat(token) {
		t.Errorf("Generated token should validate: %s", token)
	}

	other, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}
	if token == other {
		t.Error("Tokens must be unique")
	}
}

func TestValidateTokenFormat(t *testing.T) {
	t.Parallel()

	valid := "sw_" + strings.Repeat("ab12", 16)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid", valid, true},
		{"empty", "", false},
		{"missing_prefix", strings.Repeat("ab12", 16), false},
		{"wrong_prefix", "pk_" + strings.Repeat("ab12", 16), false},
		{"too_short", "sw_abcd", false},
		{"too_long", valid + "ff", false},
		{"uppercase_hex", "sw_" + strings.Repeat("AB12", 16), false},
		{"non_hex", "sw_" + strings.Repeat("zz12", 16), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ValidateTokenFormat(test.token); got != test.want {
				t.Errorf("ValidateTokenFormat(%q) = %v, want %v", test.token, got, test.want)
			}
		})
	}
}
