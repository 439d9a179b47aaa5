package devbackend

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	pz "github.com/weberc2/httpeasy"
)

var (
	ErrTokenExpired = &pz.HTTPError{
		Status:  http.StatusUnauthorized,
		Message: "Token expired",
	}
	ErrInvalidResetToken = &pz.HTTPError{
		Status:  http.StatusUnauthorized,
		Message: "Invalid reset token",
	}
)

type Claims struct {
	User  UserID `json:"user"`
	Email string `json:"email"`
	jwt.StandardClaims
}

// ResetTokenFactory issues and verifies ES512-signed reset tokens.
type ResetTokenFactory struct {
	Issuer        string
	Audience      string
	TokenValidity time.Duration
	SigningKey    *ecdsa.PrivateKey
}

func (rtf *ResetTokenFactory) Create(
	now time.Time,
	user UserID,
	email string,
) (string, error) {
	token := jwt.NewWithClaims(
		jwt.SigningMethodES512,
		Claims{
			User:  user,
			Email: email,
			StandardClaims: jwt.StandardClaims{
				Subject:   string(user),
				Audience:  rtf.Audience,
				Issuer:    rtf.Issuer,
				IssuedAt:  now.Unix(),
				ExpiresAt: now.Add(rtf.TokenValidity).Unix(),
				NotBefore: now.Unix(),
			},
		},
	)
	return token.SignedString(rtf.SigningKey)
}

// Claims verifies `token` as of `now`. Expired tokens yield
// `ErrTokenExpired`; anything else wrong with the token yields
// `ErrInvalidResetToken`.
func (rtf *ResetTokenFactory) Claims(now time.Time, token string) (*Claims, error) {
	var claims Claims
	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodES512.Alg()},
		SkipClaimsValidation: true,
	}
	if _, err := parser.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (interface{}, error) {
			return &rtf.SigningKey.PublicKey, nil
		},
	); err != nil {
		return nil, invalidResetToken(err)
	}

	unix := now.Unix()
	if !claims.VerifyExpiresAt(unix, true) {
		return nil, ErrTokenExpired
	}
	if !claims.VerifyNotBefore(unix, true) {
		return nil, invalidResetToken(errors.New("token used before `nbf`"))
	}
	if !claims.VerifyIssuer(rtf.Issuer, true) {
		return nil, invalidResetToken(fmt.Errorf(
			"issuer: wanted `%s`; found `%s`",
			rtf.Issuer,
			claims.Issuer,
		))
	}
	if !claims.VerifyAudience(rtf.Audience, true) {
		return nil, invalidResetToken(fmt.Errorf(
			"audience: wanted `%s`; found `%s`",
			rtf.Audience,
			claims.Audience,
		))
	}
	return &claims, nil
}

func invalidResetToken(cause error) *pz.HTTPError {
	return &pz.HTTPError{
		Status:  ErrInvalidResetToken.Status,
		Message: ErrInvalidResetToken.Message,
		Cause_:  cause,
	}
}

// ParseSigningKey decodes a PEM-encoded EC private key.
func ParseSigningKey(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("parsing signing key: no PEM block found")
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing x509 EC private key: %w", err)
	}

	return key, nil
}
