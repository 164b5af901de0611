package auth

import (
	"strings"
	"testing"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	service := NewJWTService("test-secret", 15, 7)

	pair, err := service.Generate(42, "reader@techhive.local", "member")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Generate() returned empty tokens")
	}
	if pair.ExpiresIn != 15*60 {
		t.Errorf("ExpiresIn = %d, want %d", pair.ExpiresIn, 15*60)
	}

	claims, err := service.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "reader@techhive.local" {
		t.Errorf("Email = %q, want reader@techhive.local", claims.Email)
	}
	if claims.Role != "member" {
		t.Errorf("Role = %q, want member", claims.Role)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenTypeAccess)
	}
}

func TestJWTService_RefreshTokenType(t *testing.T) {
	service := NewJWTService("test-secret", 15, 7)

	pair, err := service.Generate(7, "writer@techhive.local", "admin")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := service.Verify(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, TokenTypeRefresh)
	}
}

func TestJWTService_VerifyRejectsWrongSecret(t *testing.T) {
	service := NewJWTService("test-secret", 15, 7)
	other := NewJWTService("other-secret", 15, 7)

	pair, err := service.Generate(1, "reader@techhive.local", "member")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := other.Verify(pair.AccessToken); err == nil {
		t.Error("Verify() accepted token signed with a different secret")
	}
}

func TestJWTService_VerifyRejectsGarbage(t *testing.T) {
	service := NewJWTService("test-secret", 15, 7)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "abc.def"},
		{"tampered", ""},
	}

	pair, err := service.Generate(1, "reader@techhive.local", "member")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	tests[2].token = pair.AccessToken[:len(pair.AccessToken)-4] + "AAAA"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Verify(tt.token); err == nil {
				t.Errorf("Verify() accepted %q", tt.token)
			}
		})
	}
}

func TestJWTService_DefaultRefreshExpiry(t *testing.T) {
	service := NewJWTService("test-secret", 15, 0)
	if service.refreshExpDays != 7 {
		t.Errorf("refreshExpDays = %d, want 7", service.refreshExpDays)
	}

	pair, err := service.Generate(1, "reader@techhive.local", "member")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if parts := strings.Count(pair.RefreshToken, "."); parts != 2 {
		t.Errorf("refresh token has %d separators, want 2", parts)
	}
}
