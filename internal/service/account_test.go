package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/grade-predictor/internal/apperror"
	"github.com/sakif/grade-predictor/internal/auth"
)

func newAccountService(users *fakeUsers) *AccountService {
	return NewAccountService(users, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
}

// ===== Signup =====

func TestSignup_CreatesNewUser(t *testing.T) {
	users := newFakeUsers()
	svc := newAccountService(users)

	u, err := svc.Signup(context.Background(), "  Ada  ", "Ada@Example.com", "secret1")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if u.ID == "" {
		t.Error("Signup() returned empty id")
	}
	if !u.IsNewUser {
		t.Error("IsNewUser = false, want true for a fresh account")
	}
	if u.Name != "Ada" {
		t.Errorf("Name = %q, want trimmed %q", u.Name, "Ada")
	}
	if u.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lower-cased", u.Email)
	}
	if u.PasswordHash == "secret1" || u.PasswordHash == "" {
		t.Errorf("PasswordHash = %q, want a bcrypt digest", u.PasswordHash)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	users := newFakeUsers()
	svc := newAccountService(users)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "A", "a@example.com", "secret1"); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}
	_, err := svc.Signup(ctx, "B", "A@EXAMPLE.com", "other12")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Signup() error = %v, want ErrConflict", err)
	}
	if err.Error() != "Email already registered" {
		t.Errorf("message = %q", err.Error())
	}
	if len(users.byID) != 1 {
		t.Errorf("stored users = %d, want 1", len(users.byID))
	}
}

func TestSignup_PasswordTooLong(t *testing.T) {
	svc := newAccountService(newFakeUsers())

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.Signup(context.Background(), "A", "a@example.com", string(long))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Signup() error = %v, want ErrValidation", err)
	}
}

func TestSignup_StoreFailure(t *testing.T) {
	users := newFakeUsers()
	users.failWith = errStoreDown
	svc := newAccountService(users)

	_, err := svc.Signup(context.Background(), "A", "a@example.com", "secret1")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("Signup() error = %v, want wrapped store error", err)
	}
	if errors.Is(err, apperror.ErrConflict) {
		t.Error("store failure must not look like a duplicate")
	}
}

// ===== Login =====

func TestLogin(t *testing.T) {
	users := newFakeUsers()
	svc := newAccountService(users)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "Ada", "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"correct credentials", "ada@example.com", "secret1", nil},
		{"email is case-insensitive", "  ADA@example.COM ", "secret1", nil},
		{"wrong password", "ada@example.com", "wrong!!", apperror.ErrUnauthorized},
		{"unknown email", "nobody@example.com", "secret1", apperror.ErrUnauthorized},
		{"empty password", "ada@example.com", "", apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				if err.Error() != "Invalid email or password" {
					t.Errorf("message = %q, want generic message", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if u.ID != created.ID {
				t.Errorf("ID = %q, want %q", u.ID, created.ID)
			}
		})
	}
}

func TestLogin_StoreFailureIsNotUnauthorized(t *testing.T) {
	users := newFakeUsers()
	users.failWith = errStoreDown
	svc := newAccountService(users)

	_, err := svc.Login(context.Background(), "a@example.com", "secret1")
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want an internal error", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("Login() error = %v, want wrapped store error", err)
	}
}

// ===== MarkNotNew =====

func TestMarkNotNew(t *testing.T) {
	users := newFakeUsers()
	svc := newAccountService(users)
	ctx := context.Background()

	u, _ := svc.Signup(ctx, "Ada", "ada@example.com", "secret1")

	for i := 0; i < 2; i++ {
		if err := svc.MarkNotNew(ctx, u.ID); err != nil {
			t.Fatalf("MarkNotNew() call %d error = %v", i+1, err)
		}
	}
	if users.byID[u.ID].IsNewUser {
		t.Error("IsNewUser still true after MarkNotNew")
	}
}

func TestMarkNotNew_UnknownUser(t *testing.T) {
	svc := newAccountService(newFakeUsers())

	for _, id := range []string{"missing", ""} {
		err := svc.MarkNotNew(context.Background(), id)
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("MarkNotNew(%q) error = %v, want ErrNotFound", id, err)
			continue
		}
		if err.Error() != "User not found" {
			t.Errorf("message = %q, want %q", err.Error(), "User not found")
		}
	}
}
