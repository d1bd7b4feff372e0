package auth

import "testing"

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	tok, err := svc.IssueSessionToken("player-1", "conn-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "player-1" || claims.ConnID != "conn-1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestSessionTokensAreFresh(t *testing.T) {
	svc := NewTokenService("test-secret")

	a, _ := svc.IssueSessionToken("player-1", "conn-1")
	b, _ := svc.IssueSessionToken("player-1", "conn-1")
	if a == b {
		t.Fatal("two tokens for the same identity should differ")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, _ := NewTokenService("secret-a").IssueSessionToken("player-1", "conn-1")
	if _, err := NewTokenService("secret-b").Parse(tok); err == nil {
		t.Fatal("token signed with another secret parsed successfully")
	}
}
