// Package credential resolves the Hyperaide API key from an ordered list of
// sources: a flag value, an environment variable, then an interactive prompt.
package credential

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned by the prompt source when stdin is not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// Credential is a resolved API key and where it came from.
type Credential struct {
	Token  string
	Source string
}

// Source yields a token or reports that it has none. A source that has no
// value returns ("", nil); an error aborts resolution.
type Source interface {
	Name() string
	Lookup() (string, error)
}

// MissingCredentialError is returned when no source produced a token.
type MissingCredentialError struct {
	Tried []string
	// Err is set when the last source failed in a way worth reporting,
	// such as a prompt attempted without a terminal.
	Err error
}

func (e *MissingCredentialError) Error() string {
	msg := "no API key provided"
	if len(e.Tried) > 0 {
		msg += " (tried " + strings.Join(e.Tried, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingCredentialError) Unwrap() error { return e.Err }

// EnvVars lists the environment variables that were consulted, in order.
func (e *MissingCredentialError) EnvVars() []string {
	var out []string
	for _, name := range e.Tried {
		if key, ok := strings.CutPrefix(name, "$"); ok && key != "" {
			out = append(out, key)
		}
	}
	return out
}

// Resolve walks sources in order and returns the first non-empty token.
func Resolve(sources ...Source) (Credential, error) {
	missing := &MissingCredentialError{}
	for _, src := range sources {
		if src == nil {
			continue
		}
		missing.Tried = append(missing.Tried, src.Name())
		token, err := src.Lookup()
		if errors.Is(err, ErrNotInteractive) {
			missing.Err = err
			continue
		}
		if err != nil {
			return Credential{}, fmt.Errorf("reading API key from %s: %w", src.Name(), err)
		}
		if token = strings.TrimSpace(token); token != "" {
			return Credential{Token: token, Source: src.Name()}, nil
		}
	}
	return Credential{}, missing
}

// Value is a source backed by a fixed string, typically a flag.
type Value struct {
	Label string
	Token string
}

func (v Value) Name() string            { return v.Label }
func (v Value) Lookup() (string, error) { return v.Token, nil }

// Env reads an environment variable.
type Env struct {
	Key string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (e Env) Name() string { return "$" + e.Key }

func (e Env) Lookup() (string, error) {
	if e.Key == "" {
		return "", nil
	}
	get := e.Getenv
	if get == nil {
		get = os.Getenv
	}
	return get(e.Key), nil
}

// Prompt asks on Out and reads from a terminal without echo.
type Prompt struct {
	Message string
	Out     io.Writer

	// FD is the file descriptor read from, normally stdin.
	FD int
	// IsTerminal and ReadPassword default to the x/term functions.
	IsTerminal   func(fd int) bool
	ReadPassword func(fd int) ([]byte, error)
}

// NewPrompt returns a Prompt on stdin that writes to out.
func NewPrompt(out io.Writer) *Prompt {
	return &Prompt{
		Message: "Enter your Hyperaide API key: ",
		Out:     out,
		FD:      int(os.Stdin.Fd()),
	}
}

func (p *Prompt) Name() string { return "prompt" }

func (p *Prompt) Lookup() (string, error) {
	isTerminal := p.IsTerminal
	if isTerminal == nil {
		isTerminal = term.IsTerminal
	}
	if !isTerminal(p.FD) {
		return "", ErrNotInteractive
	}
	read := p.ReadPassword
	if read == nil {
		read = term.ReadPassword
	}

	out := p.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprint(out, p.Message)
	b, err := read(p.FD)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return string(b), nil
}
