package utils

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_ACCESS_KEY", "access-key")
	t.Setenv("JWT_ACCESS_EXPIRE", "15")
	t.Setenv("JWT_REFRESH_KEY", "refresh-key")
	t.Setenv("JWT_REFRESH_EXPIRE", "60")

	tokens, err := GenerateTokens("42", false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := CheckAndExtractTokenMetadata(tokens.Access, "JWT_ACCESS_KEY")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if claims.Id != "42" {
		t.Errorf("id = %q, want %q", claims.Id, "42")
	}
	if claims.Otp {
		t.Error("otp claim should be false")
	}

	// A token signed with the access key must not validate as refresh
	if _, err := CheckAndExtractTokenMetadata(tokens.Access, "JWT_REFRESH_KEY"); err == nil {
		t.Error("expected signature mismatch")
	}
}
