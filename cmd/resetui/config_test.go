package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/weberc2/resetui/pkg/testsupport"
)

var configEnvVars = []string{
	"RESETUI_ADDR",
	"RESETUI_API_BASE_URL",
	"RESETUI_APP_LINK",
	"RESETUI_REDIRECT_DELAY",
	"RESETUI_SUBMIT_TIMEOUT",
	"RESETUI_LOG_LEVEL",
	"RESETUI_LOG_FORMAT",
}

// clearEnv unsets the config variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if old, ok := os.LookupEnv(key); ok {
			key := key
			t.Cleanup(func() { os.Setenv(key, old) })
		}
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resetui.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	for _, testCase := range []struct {
		name        string
		file        string
		env         map[string]string
		wanted      Config
		wantedError testsupport.WantedError
	}{
		{
			name: "defaults",
			env:  map[string]string{"RESETUI_API_BASE_URL": "https://api.example.org"},
			wanted: Config{
				Addr:          ":8080",
				APIBaseURL:    "https://api.example.org",
				AppLink:       "myapp://login",
				RedirectDelay: 2 * time.Second,
				SubmitTimeout: 10 * time.Second,
				LogLevel:      "info",
				LogFormat:     "json",
			},
			wantedError: testsupport.NilError{},
		},
		{
			name: "file over defaults",
			file: "addr: 127.0.0.1:9000\n" +
				"apiBaseURL: https://file.example.org\n" +
				"redirectDelay: 3s\n" +
				"logFormat: console\n",
			wanted: Config{
				Addr:          "127.0.0.1:9000",
				APIBaseURL:    "https://file.example.org",
				AppLink:       "myapp://login",
				RedirectDelay: 3 * time.Second,
				SubmitTimeout: 10 * time.Second,
				LogLevel:      "info",
				LogFormat:     "console",
			},
			wantedError: testsupport.NilError{},
		},
		{
			name: "env over file",
			file: "apiBaseURL: https://file.example.org\nappLink: fileapp://\n",
			env: map[string]string{
				"RESETUI_API_BASE_URL":   "https://env.example.org",
				"RESETUI_SUBMIT_TIMEOUT": "1m",
			},
			wanted: Config{
				Addr:          ":8080",
				APIBaseURL:    "https://env.example.org",
				AppLink:       "fileapp://",
				RedirectDelay: 2 * time.Second,
				SubmitTimeout: time.Minute,
				LogLevel:      "info",
				LogFormat:     "json",
			},
			wantedError: testsupport.NilError{},
		},
		{
			name:        "unknown file key",
			file:        "apiBaseUrl: https://file.example.org\n",
			wantedError: testsupport.AnyError,
		},
		{
			name:        "bad duration",
			env:         map[string]string{"RESETUI_REDIRECT_DELAY": "soon"},
			wantedError: testsupport.AnyError,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range testCase.env {
				t.Setenv(key, value)
			}

			path := filepath.Join(t.TempDir(), "missing.yaml")
			if testCase.file != "" {
				path = writeFile(t, testCase.file)
			}

			found, err := LoadConfig(path)
			if err := testCase.wantedError.CompareErr(err); err != nil {
				t.Fatalf("LoadConfig(): %v", err)
			}
			if err != nil {
				return
			}

			if diff := cmp.Diff(testCase.wanted, *found); diff != "" {
				t.Fatalf("LoadConfig(): unexpected config (-wanted +found):\n%s", diff)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.APIBaseURL = "https://api.example.org"

	for _, testCase := range []struct {
		name          string
		modify        func(*Config)
		wantedMessage string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:          "missing api base url",
			modify:        func(c *Config) { c.APIBaseURL = "" },
			wantedMessage: "apiBaseURL / RESETUI_API_BASE_URL",
		},
		{
			name:          "missing addr",
			modify:        func(c *Config) { c.Addr = "" },
			wantedMessage: "addr / RESETUI_ADDR",
		},
		{
			name:          "relative api base url",
			modify:        func(c *Config) { c.APIBaseURL = "/auth" },
			wantedMessage: "wanted absolute http(s) URL",
		},
		{
			name:          "zero redirect delay",
			modify:        func(c *Config) { c.RedirectDelay = 0 },
			wantedMessage: "redirectDelay",
		},
		{
			name:          "negative submit timeout",
			modify:        func(c *Config) { c.SubmitTimeout = -time.Second },
			wantedMessage: "submitTimeout",
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			c := valid
			testCase.modify(&c)
			err := c.Validate()
			if testCase.wantedMessage == "" {
				if err != nil {
					t.Fatalf("Validate(): wanted `nil`; found `%v`", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), testCase.wantedMessage) {
				t.Fatalf(
					"Validate(): wanted error containing `%s`; found `%v`",
					testCase.wantedMessage,
					err,
				)
			}
		})
	}
}

func TestConfig_Logger(t *testing.T) {
	c := DefaultConfig()
	c.LogLevel = "chatty"
	if _, err := c.Logger(); err == nil {
		t.Fatal("Logger(): wanted error; found `nil`")
	}
}
