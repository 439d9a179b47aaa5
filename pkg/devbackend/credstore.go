package devbackend

import (
	"fmt"
	"net/http"

	"github.com/nbutton23/zxcvbn-go"
	pz "github.com/weberc2/httpeasy"
	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordTooSimple = &pz.HTTPError{
	Status:  http.StatusBadRequest,
	Message: "Password is too simple",
}

// MinScore is the lowest zxcvbn score the backend accepts.
const MinScore = 3

type CredStore struct {
	Users *MemUserStore
}

// SetPassword replaces the password of an existing user.
func (cs *CredStore) SetPassword(user UserID, password string) error {
	entry, err := cs.Users.Get(user)
	if err != nil {
		return fmt.Errorf("setting password: %w", err)
	}

	if err := validatePassword(entry, password); err != nil {
		return fmt.Errorf("setting password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword(
		[]byte(password),
		bcrypt.DefaultCost,
	)
	if err != nil {
		return fmt.Errorf("setting password: hashing: %w", err)
	}

	if err := cs.Users.Upsert(&UserEntry{
		User:         entry.User,
		Email:        entry.Email,
		PasswordHash: hash,
	}); err != nil {
		return fmt.Errorf("setting password: %w", err)
	}
	return nil
}

// Check reports whether `password` is the user's current password.
func (cs *CredStore) Check(user UserID, password string) (bool, error) {
	entry, err := cs.Users.Get(user)
	if err != nil {
		return false, fmt.Errorf("checking password: %w", err)
	}
	if entry.PasswordHash == nil {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword(
		entry.PasswordHash,
		[]byte(password),
	) == nil, nil
}

func validatePassword(entry *UserEntry, password string) error {
	minEntropyMatch := zxcvbn.PasswordStrength(
		password,
		[]string{string(entry.User), entry.Email},
	)
	if minEntropyMatch.Score < MinScore {
		return fmt.Errorf("validating password: %w", ErrPasswordTooSimple)
	}
	return nil
}
