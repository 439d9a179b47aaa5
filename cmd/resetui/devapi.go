package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/resetui/pkg/devbackend"
)

func devAPICommand() *cli.Command {
	return &cli.Command{
		Name: "devapi",
		Usage: "run an in-memory reset backend and print a reset link for " +
			"a seeded user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "the address the backend listens on",
				EnvVars: []string{envVarPrefix + "_DEVAPI_ADDR"},
				Value:   ":8081",
			},
			&cli.StringFlag{
				Name:    "ui-base-url",
				Usage:   "the base URL of the reset pages, for reset links",
				EnvVars: []string{envVarPrefix + "_DEVAPI_UI_BASE_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "the seeded user",
				Value: "user",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "the seeded user's email address",
				Value: "user@example.org",
			},
			&cli.StringFlag{
				Name: "signing-key-file",
				Usage: "PEM-encoded ES512 key for reset tokens. A fresh key " +
					"is generated when unset.",
				EnvVars: []string{envVarPrefix + "_DEVAPI_SIGNING_KEY_FILE"},
			},
			&cli.DurationFlag{
				Name:  "token-validity",
				Usage: "how long reset tokens are valid",
				Value: time.Hour,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "console",
			},
		},
		Action: devAPI,
	}
}

func devAPI(ctx *cli.Context) error {
	c := Config{
		LogLevel:  ctx.String("log-level"),
		LogFormat: ctx.String("log-format"),
	}
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	key, err := signingKey(ctx.String("signing-key-file"))
	if err != nil {
		return err
	}

	var users devbackend.MemUserStore
	user := devbackend.UserID(ctx.String("user"))
	if err := users.Insert(&devbackend.UserEntry{
		User:  user,
		Email: ctx.String("email"),
	}); err != nil {
		return fmt.Errorf("seeding user: %w", err)
	}

	backend := devbackend.Backend{
		Creds: devbackend.CredStore{Users: &users},
		ResetTokens: devbackend.ResetTokenFactory{
			Issuer:        appName,
			Audience:      appName,
			TokenValidity: ctx.Duration("token-validity"),
			SigningKey:    key,
		},
		Notifications: &devbackend.ConsoleNotificationService{
			Writer:    ctx.App.Writer,
			UIBaseURL: ctx.String("ui-base-url"),
		},
	}

	if _, err := backend.ForgotPassword(user); err != nil {
		return err
	}

	logger.Info().
		Str("addr", ctx.String("addr")).
		Str("user", string(user)).
		Msg("dev backend listening")
	return runServer(
		ctx.Context,
		logger,
		ctx.String("addr"),
		pz.Register(pz.JSONLog(os.Stderr), backend.Routes()...),
	)
}

func signingKey(file string) (*ecdsa.PrivateKey, error) {
	if file == "" {
		key, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating ecdsa key: %w", err)
		}
		return key, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}
	return devbackend.ParseSigningKey(data)
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name: "keygen",
		Usage: "print a PEM-encoded ES512 key pair for devapi " +
			"--signing-key-file",
		Action: func(ctx *cli.Context) error {
			key, err := signingKey("")
			if err != nil {
				return err
			}
			return writeKeyPair(ctx.App.Writer, key)
		},
	}
}

func writeKeyPair(w io.Writer, key *ecdsa.PrivateKey) error {
	data, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("x509 marshaling ecdsa private key: %w", err)
	}

	if err := pem.Encode(
		w,
		&pem.Block{Type: "PRIVATE KEY", Bytes: data},
	); err != nil {
		return fmt.Errorf("encoding private key as pem: %w", err)
	}

	data, err = x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("x509 marshaling ecdsa public key: %w", err)
	}

	if err := pem.Encode(
		w,
		&pem.Block{Type: "PUBLIC KEY", Bytes: data},
	); err != nil {
		return fmt.Errorf("encoding public key as pem: %w", err)
	}
	return nil
}
