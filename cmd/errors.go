package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xkilldash9x/hyperaide-sync/internal/browser"
	"github.com/xkilldash9x/hyperaide-sync/internal/credential"
	"github.com/xkilldash9x/hyperaide-sync/internal/syncapi"
)

var (
	errNoAuthCookies = errors.New("no authentication cookies captured")
	errSitesRejected = errors.New("some sites were rejected")
)

// reportedError marks a failure whose explanation was already printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error { return &reportedError{err: err} }

// describeError maps an error to a one-line message and a suggested next step.
func describeError(err error) (msg, hint string) {
	var (
		missing *credential.MissingCredentialError
		authErr *syncapi.AuthError
		netErr  *syncapi.NetworkError
		srvErr  *syncapi.ServerError
		reqErr  *syncapi.RequestError
		launch  *browser.BrowserLaunchError
		aborted *browser.CaptureAbortedError
	)
	switch {
	case errors.As(err, &missing):
		if vars := missing.EnvVars(); len(vars) > 0 {
			return "Missing API key", fmt.Sprintf("Pass --token, or set %s and run again", strings.Join(vars, " or "))
		}
		return "Missing API key", "Pass --token and run again"
	case errors.As(err, &authErr):
		return "Invalid API key", "Re-run with a valid token from https://app.hyperaide.com"
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not connect to %s", netErr.URL), "Check your network connection and try again"
	case errors.As(err, &srvErr):
		return fmt.Sprintf("Hyperaide had a problem (HTTP %d)", srvErr.StatusCode), "The server had a problem, retry in a few minutes"
	case errors.As(err, &reqErr):
		msg = fmt.Sprintf("Request failed (HTTP %d)", reqErr.StatusCode)
		if reqErr.Message != "" {
			msg += ": " + reqErr.Message
		}
		return msg, "Make sure hyperaide-sync is up to date"
	case errors.As(err, &launch):
		return "Could not launch the browser", "Install Google Chrome or Chromium, or set browser.exec_path (HYPERAIDE_BROWSER)"
	case errors.As(err, &aborted):
		return "Sync cancelled", "Capture was incomplete, nothing was uploaded"
	case errors.Is(err, context.Canceled):
		return "Interrupted", "Nothing was uploaded"
	}
	return err.Error(), ""
}

// printError renders err for the user unless it was already reported.
func printError(w io.Writer, err error) {
	var done *reportedError
	if err == nil || errors.As(err, &done) {
		return
	}
	p := newPrinter(w)
	msg, hint := describeError(err)
	p.fail("%s", msg)
	if hint != "" {
		p.subtle("%s", hint)
	}
}
