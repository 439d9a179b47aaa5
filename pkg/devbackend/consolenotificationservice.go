package devbackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
)

// ResetLink is the link a reset email would carry: the UI's reset form with
// the token in the query string.
func ResetLink(uiBaseURL, token string) (string, error) {
	u, err := url.Parse(uiBaseURL)
	if err != nil {
		return "", fmt.Errorf("building reset link: %w", err)
	}
	u = u.JoinPath("reset-password")
	u.RawQuery = url.Values{"token": []string{token}}.Encode()
	return u.String(), nil
}

// ConsoleNotificationService writes reset links to `Writer` (stdout when
// unset) instead of emailing them.
type ConsoleNotificationService struct {
	Writer    io.Writer
	UIBaseURL string
}

func (cns *ConsoleNotificationService) Notify(
	user UserID,
	email string,
	token string,
) error {
	link, err := ResetLink(cns.UIBaseURL, token)
	if err != nil {
		return err
	}

	data, err := json.Marshal(struct {
		User  UserID `json:"user"`
		Email string `json:"email"`
		Link  string `json:"link"`
	}{
		User:  user,
		Email: email,
		Link:  link,
	})
	if err != nil {
		return err
	}

	w := cns.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
