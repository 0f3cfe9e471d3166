package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// =========================================================================
// HELPER
// =========================================================================

// newTestPasswordService returns a PasswordService with bcrypt cost 4, the
// minimum bcrypt allows, so each hash takes milliseconds.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_ReturnsNonEmptyHash(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("my-secret-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" {
		t.Error("Hash() returned empty string")
	}
}

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// bcrypt hashes always start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt generates a random salt each time, so two hashes for the
	// same password must differ.
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_RejectsPasswordOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt silently truncates at 72 bytes; Hash rejects instead.
	longPassword := strings.Repeat("a", 73)
	_, err := ps.Hash(longPassword)
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("Hash() error = %v, want ErrPasswordTooLong", err)
	}
}

func TestHash_AcceptsPasswordExactly72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	exactPassword := strings.Repeat("a", 72)
	_, err := ps.Hash(exactPassword)
	if err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got error: %v", err)
	}
}

// =========================================================================
// Compare / Verify TESTS
// =========================================================================

func TestCompare_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Compare(hash, "correct-horse-battery-staple"); err != nil {
		t.Errorf("Compare() should return nil for a correct password, got: %v", err)
	}
}

func TestCompare_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("the-real-password")

	if err := ps.Compare(hash, "the-wrong-password"); err == nil {
		t.Fatal("Compare() should return an error for a wrong password")
	}
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, _ := ps.Hash("some-password")

	tests := []struct {
		name      string
		plaintext string
		digest    string
		want      bool
	}{
		{"matching password", "some-password", hash, true},
		{"wrong password", "other-password", hash, false},
		{"empty password", "", hash, false},
		{"garbage digest", "some-password", "not-a-valid-bcrypt-hash", false},
		{"empty digest", "some-password", "", false},
		{"truncated digest", "some-password", hash[:20], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ps.Verify(tt.plaintext, tt.digest); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBurn_DoesNotPanic(t *testing.T) {
	ps := newTestPasswordService()
	ps.Burn("anything")
	ps.Burn("anything else")
}

// =========================================================================
// CONSTRUCTOR TESTS
// =========================================================================

func TestNewPasswordService(t *testing.T) {
	if _, err := NewPasswordService(0); err != nil {
		t.Errorf("NewPasswordService(0) error = %v, want default cost", err)
	}
	if _, err := NewPasswordService(bcrypt.MinCost); err != nil {
		t.Errorf("NewPasswordService(MinCost) error = %v", err)
	}
	if _, err := NewPasswordService(bcrypt.MaxCost + 1); err == nil {
		t.Error("NewPasswordService(MaxCost+1) should fail")
	}
	if _, err := NewPasswordService(2); err == nil {
		t.Error("NewPasswordService(2) should fail")
	}
}

// =========================================================================
// ROUND-TRIP TEST
// =========================================================================

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
		{"empty-ish", " "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}

			if !ps.Verify(tc.password, hash) {
				t.Errorf("Verify() = false for %q", tc.password)
			}
		})
	}
}
