// Package devbackend is an in-memory stand-in for the password reset API.
// It's meant for local development and end-to-end tests.
package devbackend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/resetui/pkg/client"
)

type Notifier interface {
	Notify(user UserID, email string, token string) error
}

type Backend struct {
	Creds         CredStore
	ResetTokens   ResetTokenFactory
	Notifications Notifier
	TimeFunc      func() time.Time
}

// ForgotPassword issues a reset token for `user` and hands it to the
// notifier. The token is also returned.
func (b *Backend) ForgotPassword(user UserID) (string, error) {
	entry, err := b.Creds.Users.Get(user)
	if err != nil {
		return "", fmt.Errorf("issuing reset token: %w", err)
	}

	token, err := b.ResetTokens.Create(b.now(), entry.User, entry.Email)
	if err != nil {
		return "", fmt.Errorf("issuing reset token: %w", err)
	}

	if b.Notifications != nil {
		if err := b.Notifications.Notify(
			entry.User,
			entry.Email,
			token,
		); err != nil {
			return "", fmt.Errorf("notifying reset token: %w", err)
		}
	}
	return token, nil
}

// ResetPassword sets the password of the user the token was issued to.
func (b *Backend) ResetPassword(token, password string) (UserID, error) {
	claims, err := b.ResetTokens.Claims(b.now(), token)
	if err != nil {
		return "", fmt.Errorf("resetting password: %w", err)
	}

	if err := b.Creds.SetPassword(claims.User, password); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return claims.User, fmt.Errorf(
				"resetting password: %w",
				invalidResetToken(err),
			)
		}
		return claims.User, fmt.Errorf("resetting password: %w", err)
	}
	return claims.User, nil
}

func (b *Backend) now() time.Time {
	if b.TimeFunc != nil {
		return b.TimeFunc()
	}
	return time.Now()
}

func (b *Backend) Routes() []pz.Route {
	return []pz.Route{b.ResetPasswordRoute()}
}

func (b *Backend) ResetPasswordRoute() pz.Route {
	return pz.Route{
		Path:   client.ResetPasswordPath,
		Method: "POST",
		Handler: func(r pz.Request) pz.Response {
			l := logging{
				Message:   "resetting password",
				RequestID: r.Headers.Get("X-Request-ID"),
			}

			token, ok := bearerToken(r.Headers.Get("Authorization"))
			if !ok {
				l.Error = "missing bearer token"
				return pz.Unauthorized(
					pz.JSON(&message{ErrInvalidResetToken.Message}),
					&l,
				)
			}

			var payload struct {
				NewPassword string `json:"newPassword"`
			}
			if err := r.JSON(&payload); err != nil {
				l.Error = err.Error()
				return pz.BadRequest(
					pz.JSON(&message{"Invalid request body"}),
					&l,
				)
			}

			user, err := b.ResetPassword(token, payload.NewPassword)
			l.User = user
			if err != nil {
				l.ErrorType = fmt.Sprintf("%T", err)
				l.Error = err.Error()
				var httpErr *pz.HTTPError
				if errors.As(err, &httpErr) {
					return pz.Response{
						Status: httpErr.Status,
						Data:   pz.JSON(&message{httpErr.Message}),
					}.WithLogging(&l)
				}
				return pz.InternalServerError(&l)
			}

			l.Message = "reset password"
			return pz.Ok(pz.JSON(&message{"Password updated"}), &l)
		},
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) ||
		!strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

type logging struct {
	Message   string `json:"message"`
	RequestID string `json:"requestID,omitempty"`
	User      UserID `json:"user,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
	Error     string `json:"error,omitempty"`
}
