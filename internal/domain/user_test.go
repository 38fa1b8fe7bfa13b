package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	validEmail := "test@example.com"
	validPassword := "averylongpassword"

	user, err := NewUser(validEmail, validPassword)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Email != validEmail {
		t.Errorf("Expected email %s, got %s", validEmail, user.Email)
	}

	if user.Password != validPassword {
		t.Errorf("Expected password %s, got %s", validPassword, user.Password)
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	if user.UpdatedAt.IsZero() {
		t.Error("Expected non-zero UpdatedAt time")
	}

	if _, err = NewUser("", validPassword); !errors.Is(err, ErrEmptyEmail) {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}

	if _, err = NewUser("invalidemail", validPassword); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	if _, err = NewUser(validEmail, ""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}

	if _, err = NewUser(validEmail, "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}

	if _, err = NewUser(validEmail, strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooLong, err)
	}
}

func TestUserValidate(t *testing.T) {
	validUser := User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: "$2a$10$notarealhashbutlongenough",
	}

	if err := validUser.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidUser := validUser
	invalidUser.ID = uuid.Nil
	if err := invalidUser.Validate(); !errors.Is(err, ErrEmptyUserID) {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}

	invalidUser = validUser
	invalidUser.Email = ""
	if err := invalidUser.Validate(); !errors.Is(err, ErrEmptyEmail) {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}

	invalidUser = validUser
	invalidUser.Email = "invalidemail"
	if err := invalidUser.Validate(); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	// A stored user with neither plaintext nor hash is invalid.
	invalidUser = validUser
	invalidUser.HashedPassword = ""
	if err := invalidUser.Validate(); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}
}

func TestValidEmailFormat(t *testing.T) {
	validEmails := []string{
		"user@example.com",
		"user.name@example.com",
		"user+tag@example.com",
		"user@sub.example.com",
	}

	invalidEmails := []string{
		"",
		"userexample.com",
		"user@",
		"@example.com",
		"user@.com",
		"user@example",
		"user@example.",
	}

	for _, email := range validEmails {
		if !validEmailFormat(email) {
			t.Errorf("Expected email %s to be valid", email)
		}
	}

	for _, email := range invalidEmails {
		if validEmailFormat(email) {
			t.Errorf("Expected email %s to be invalid", email)
		}
	}
}
