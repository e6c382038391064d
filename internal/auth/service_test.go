package auth

import "testing"

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewService("test-secret")

	token, err := svc.IssueToken("BUS001", "session-abc")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.BusID != "BUS001" || claims.SessionID != "session-abc" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokensUniquePerLogin(t *testing.T) {
	svc := NewService("test-secret")

	first, err := svc.IssueToken("BUS001", "session-1")
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := svc.IssueToken("BUS001", "session-2")
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct tokens for distinct sessions")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewService("secret-a").IssueToken("BUS001", "session-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := NewService("secret-b").ValidateToken(token); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := NewService("secret").ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error")
	}
}
