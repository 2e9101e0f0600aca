package gatekey_test

import (
	"testing"

	"github.com/panyam/gatekey"
)

func TestHashAndVerifyPassword(t *testing.T) {
	digest, err := gatekey.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if digest == "hunter22" {
		t.Fatal("digest equals plaintext")
	}

	if !gatekey.VerifyPassword("hunter22", digest) {
		t.Error("correct password did not verify")
	}
	if gatekey.VerifyPassword("wrong", digest) {
		t.Error("wrong password verified")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"garbage", "not-a-bcrypt-hash"},
		{"truncated", "$2a$10$short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gatekey.VerifyPassword("anything", tt.digest) {
				t.Errorf("malformed digest %q verified", tt.digest)
			}
		})
	}
}

func TestHashIsSalted(t *testing.T) {
	a, err := gatekey.HashPassword("same-password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := gatekey.HashPassword("same-password")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
}
