package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResetPasswordPath is appended to `Client.BaseURL` for password resets.
const ResetPasswordPath = "/auth/v1/reset-password"

// Client talks to the password-reset backend.
type Client struct {
	HTTP    http.Client
	BaseURL string

	// IDFunc produces the `X-Request-ID` sent with each request. Defaults to
	// random UUIDs.
	IDFunc func() string
}

func DefaultClient(baseURL string) Client {
	return Client{
		HTTP:    http.Client{Timeout: 10 * time.Second},
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// ResponseError is returned when the backend answers with anything other
// than `200 OK`. `Message` is the `message` field of the response body, if
// the body had one.
type ResponseError struct {
	Status  int
	Message string
}

func (err *ResponseError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("status code: wanted `200`; found `%d`", err.Status)
	}
	return fmt.Sprintf(
		"status code: wanted `200`; found `%d`: %s",
		err.Status,
		err.Message,
	)
}

type resetPassword struct {
	NewPassword string `json:"newPassword"`
}

// ResetPassword sends `newPassword` to the backend, authenticated by the
// reset `token`. A non-200 response yields a `*ResponseError`; transport
// failures are returned wrapped as-is.
func (c *Client) ResetPassword(
	ctx context.Context,
	token string,
	newPassword string,
) error {
	data, err := json.Marshal(&resetPassword{NewPassword: newPassword})
	if err != nil {
		return fmt.Errorf("resetting password: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.BaseURL+ResetPasswordPath,
		bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("resetting password: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", c.requestID())

	rsp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"resetting password: %w",
			&ResponseError{
				Status:  rsp.StatusCode,
				Message: errorMessage(rsp.Body),
			},
		)
	}
	return nil
}

func (c *Client) requestID() string {
	if c.IDFunc != nil {
		return c.IDFunc()
	}
	return uuid.NewString()
}

// errorMessage pulls the `message` field out of an error body. Bodies that
// aren't JSON objects (or are too large) yield "". A non-string `message` is
// shown as its JSON text when it is a non-zero number or `true`; any other
// value yields "".
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 8192))
	if err != nil {
		return ""
	}
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if len(payload.Message) < 1 {
		return ""
	}

	decoder := json.NewDecoder(bytes.NewReader(payload.Message))
	decoder.UseNumber()
	var message interface{}
	if err := decoder.Decode(&message); err != nil {
		return ""
	}
	switch m := message.(type) {
	case string:
		return m
	case json.Number:
		if f, err := m.Float64(); err == nil && f != 0 {
			return m.String()
		}
	case bool:
		if m {
			return "true"
		}
	}
	return ""
}
