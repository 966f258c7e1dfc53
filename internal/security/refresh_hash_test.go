package security

import (
	"testing"
)

func TestHashRefreshToken_Consistent(t *testing.T) {
	token := "refresh-token-123"
	hash1 := HashRefreshToken(token)
	hash2 := HashRefreshToken(token)

	if hash1 != hash2 {
		t.Errorf("HashRefreshToken not consistent: hash1 = %q, hash2 = %q", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(hash1))
	}
}

func TestHashRefreshToken_DifferentTokens(t *testing.T) {
	if HashRefreshToken("token-1") == HashRefreshToken("token-2") {
		t.Error("HashRefreshToken produced same hash for different tokens")
	}
}

func TestRefreshTokenHashEqual(t *testing.T) {
	token := "refresh-token-456"
	storedHash := HashRefreshToken(token)

	if !RefreshTokenHashEqual(token, storedHash) {
		t.Error("RefreshTokenHashEqual should match correct token")
	}
	if RefreshTokenHashEqual("wrong-token", storedHash) {
		t.Error("RefreshTokenHashEqual should reject incorrect token")
	}
	if RefreshTokenHashEqual(token, "a"+storedHash) {
		t.Error("RefreshTokenHashEqual should reject hash with different length")
	}
	if RefreshTokenHashEqual("", "") {
		t.Error("RefreshTokenHashEqual should not match empty stored hash")
	}
}
