package services

import "testing"

func TestTokenDeterministic(t *testing.T) {
	svc := NewTokenService("test-secret")

	a := svc.Issue(1, 2, 3)
	b := svc.Issue(1, 2, 3)
	if a != b {
		t.Fatalf("same inputs produced different tokens: %q vs %q", a, b)
	}
	if len(a) != tokenLength {
		t.Fatalf("expected %d-char token, got %d: %q", tokenLength, len(a), a)
	}
}

func TestTokenBindsAllComponents(t *testing.T) {
	svc := NewTokenService("test-secret")
	base := svc.Issue(1, 2, 3)

	if tok := svc.Issue(2, 2, 3); tok == base {
		t.Fatal("different team produced the same token")
	}
	if tok := svc.Issue(1, 3, 3); tok == base {
		t.Fatal("different round produced the same token")
	}
	if tok := svc.Issue(1, 2, 4); tok == base {
		t.Fatal("different page produced the same token")
	}
}

func TestTokenSecretMatters(t *testing.T) {
	a := NewTokenService("secret-a").Issue(1, 1, 1)
	b := NewTokenService("secret-b").Issue(1, 1, 1)
	if a == b {
		t.Fatal("different secrets produced the same token")
	}
}

func TestVerify(t *testing.T) {
	svc := NewTokenService("test-secret")

	token := svc.Issue(7, 1, 5)
	if !svc.Verify(token, 7, 1, 5) {
		t.Fatal("valid token rejected")
	}
	if svc.Verify(token, 7, 1, 6) {
		t.Fatal("token accepted for wrong page")
	}
	if svc.Verify("deadbeefdeadbeef", 7, 1, 5) {
		t.Fatal("forged token accepted")
	}
	if svc.Verify("", 7, 1, 5) {
		t.Fatal("empty token accepted")
	}
}
