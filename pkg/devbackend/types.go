package devbackend

import (
	"net/http"

	pz "github.com/weberc2/httpeasy"
)

type UserID string

type UserEntry struct {
	User         UserID `json:"user"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"`
}

var (
	ErrUserNotFound = &pz.HTTPError{
		Status:  http.StatusNotFound,
		Message: "user not found",
	}
	ErrUserExists = &pz.HTTPError{
		Status:  http.StatusConflict,
		Message: "user exists",
	}
)

// message is the error body the reset endpoint answers with.
type message struct {
	Message string `json:"message"`
}
