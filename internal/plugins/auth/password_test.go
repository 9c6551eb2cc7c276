package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected argon2id encoding, got %s", hash)
	}
	if !verifyPassword("correct horse battery staple", hash) {
		t.Error("expected hash to verify against its own password")
	}
	if verifyPassword("wrong password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := hashPassword("same password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	second, err := hashPassword("same password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if first == second {
		t.Error("expected distinct hashes for the same password")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "hunter2"},
		{"wrong algorithm", "$scrypt$n=16384$c2FsdA$aGFzaA"},
		{"truncated", "$argon2id$v=19$m=65536,t=3,p=4"},
		{"bad base64", "$argon2id$v=19$m=65536,t=3,p=4$!!!$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifyPassword("anything", tt.hash) {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestDummyHashNeverVerifies(t *testing.T) {
	if verifyPassword("", dummyHash) {
		t.Error("empty password must not verify against the dummy hash")
	}
}
