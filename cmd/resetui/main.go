package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/resetui/pkg/client"
	"github.com/weberc2/resetui/pkg/criteria"
	"github.com/weberc2/resetui/pkg/resetpassword"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  appName,
		Usage: "serve the password reset pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{envVarPrefix + "_CONFIG_FILE"},
				Value:   DefaultConfigFile(),
			},
		},
		Commands: []*cli.Command{{
			Name:   "serve",
			Usage:  "serve the reset form, home and expired pages",
			Action: withConfig(serve),
		}, {
			Name:      "check",
			Usage:     "print the password checklist for a password pair",
			ArgsUsage: "PASSWORD [CONFIRM_PASSWORD]",
			Action:    check,
		}, {
			Name:  "submit",
			Usage: "submit a password reset the way the form does",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Usage:    "the reset token from the reset link",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "password",
					Usage:    "the new password",
					EnvVars:  []string{envVarPrefix + "_PASSWORD"},
					Required: true,
				},
				&cli.StringFlag{
					Name:  "confirm-password",
					Usage: "the confirmation. Defaults to --password.",
				},
			},
			Action: withConfig(submit),
		}, devAPICommand(), keygenCommand()},
	}
}

func withConfig(
	f func(ctx *cli.Context, c *Config) error,
) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		c, err := LoadConfig(ctx.String("config"))
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		return f(ctx, c)
	}
}

func (c *Config) submitter() *resetpassword.Submitter {
	api := client.DefaultClient(c.APIBaseURL)
	api.HTTP.Timeout = c.SubmitTimeout
	return &resetpassword.Submitter{
		Resetter:      &api,
		RedirectDelay: c.RedirectDelay,
	}
}

func serve(ctx *cli.Context, c *Config) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	webServer := resetpassword.WebServer{
		Submitter:     c.submitter(),
		AppLink:       c.AppLink,
		SubmitTimeout: c.SubmitTimeout,
	}

	logger.Info().
		Str("addr", c.Addr).
		Str("apiBaseURL", c.APIBaseURL).
		Msg("listening")
	return runServer(
		ctx.Context,
		logger,
		c.Addr,
		webServer.Router(pz.JSONLog(os.Stderr)),
	)
}

func check(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 || ctx.Args().Len() > 2 {
		return cli.Exit("usage: check PASSWORD [CONFIRM_PASSWORD]", 2)
	}
	password := ctx.Args().Get(0)
	confirmPassword := password
	if ctx.Args().Len() == 2 {
		confirmPassword = ctx.Args().Get(1)
	}

	status := criteria.Evaluate(password, confirmPassword)
	w := ctx.App.Writer
	for _, item := range criteria.Checklist(status) {
		fmt.Fprintf(w, "%s %s\n", item.Marker(), item.Label)
	}
	fmt.Fprintf(
		w,
		"strength: %s\n",
		criteria.EstimateStrength(password).Label,
	)

	if !status.AllValid {
		return cli.Exit(resetpassword.MessageValidationFailed, 1)
	}
	return nil
}

func submit(ctx *cli.Context, c *Config) error {
	password := ctx.String("password")
	confirmPassword := password
	if ctx.IsSet("confirm-password") {
		confirmPassword = ctx.String("confirm-password")
	}

	submitCtx, cancel := context.WithTimeout(ctx.Context, c.SubmitTimeout)
	defer cancel()
	outcome := c.submitter().Submit(
		submitCtx,
		ctx.String("token"),
		&resetpassword.Draft{
			Password:        password,
			ConfirmPassword: confirmPassword,
		},
	)

	if outcome.Failed() {
		if outcome.Cause != nil {
			return cli.Exit(
				fmt.Sprintf("%s (%v)", outcome.Message, outcome.Cause),
				1,
			)
		}
		return cli.Exit(outcome.Message, 1)
	}
	fmt.Fprintln(ctx.App.Writer, outcome.Message)
	return nil
}
