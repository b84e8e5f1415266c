// Package config resolves credentials and endpoints from flags, the
// environment, and (for the password) an interactive prompt. Resolution
// is pure: callers hand in the environment lookup and prompt so nothing
// here reads process state implicitly.
package config

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Environment variables honored as flag fallbacks.
const (
	EnvUsername = "RAVELLO_USERNAME"
	EnvPassword = "RAVELLO_PASSWORD"
	EnvURL      = "RAVELLO_URL"
	EnvNATSURL  = "RAVELLO_NATS_URL"
)

// Credentials is a resolved username/password pair.
type Credentials struct {
	Username string
	Password string
}

// ValidationError reports a required input that could not be resolved
// from any source.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// PromptFunc reads a password interactively. A nil PromptFunc means no
// interactive input is available.
type PromptFunc func() (string, error)

// ResolveCredentials resolves the username and password with flag
// values taking precedence over the environment, and the prompt as a
// last resort for the password only.
func ResolveCredentials(flagUser, flagPass string, getenv func(string) string, prompt PromptFunc) (Credentials, error) {
	user := flagUser
	if user == "" {
		user = getenv(EnvUsername)
	}
	if user == "" {
		return Credentials{}, &ValidationError{msg: fmt.Sprintf("no username given (use --username or $%s)", EnvUsername)}
	}

	pass := flagPass
	if pass == "" {
		pass = getenv(EnvPassword)
	}
	if pass == "" && prompt != nil {
		p, err := prompt()
		if err != nil {
			return Credentials{}, err
		}
		pass = p
	}
	if pass == "" {
		return Credentials{}, &ValidationError{msg: fmt.Sprintf("no password given (use --password or $%s)", EnvPassword)}
	}

	return Credentials{Username: user, Password: pass}, nil
}

// ResolveURL picks the API endpoint: flag, then environment, then the
// fallback passed by the caller.
func ResolveURL(flagURL string, getenv func(string) string, fallback string) string {
	if flagURL != "" {
		return flagURL
	}
	if v := getenv(EnvURL); v != "" {
		return v
	}
	return fallback
}

// TerminalPrompt returns a password prompt bound to stdin, or nil when
// stdin is not a terminal.
func TerminalPrompt() PromptFunc {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
