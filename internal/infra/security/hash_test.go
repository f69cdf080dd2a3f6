package security

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected matching password to verify")
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword failed for mismatch: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatched password to fail verification")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("password", "no-separator"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}

	ok, err := VerifyPassword("", "")
	if err != nil || ok {
		t.Fatalf("empty inputs must fail closed, got ok=%v err=%v", ok, err)
	}
}
