package browser

import "fmt"

// BrowserLaunchError means the browser could not be started: the binary is
// missing or unusable, or the first tab never came up.
type BrowserLaunchError struct {
	ExecPath string
	Err      error
}

func (e *BrowserLaunchError) Error() string {
	if e.ExecPath != "" {
		return fmt.Sprintf("failed to launch browser %q: %v", e.ExecPath, e.Err)
	}
	return fmt.Sprintf("failed to launch browser: %v", e.Err)
}

func (e *BrowserLaunchError) Unwrap() error { return e.Err }

// CaptureAbortedError means the capture ended before the user closed the
// window, either by interrupt or because the browser went away on its own.
// No cookies accompany it.
type CaptureAbortedError struct {
	Reason string
	Err    error
}

func (e *CaptureAbortedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture aborted: %s: %v", e.Reason, e.Err)
	}
	return "capture aborted: " + e.Reason
}

func (e *CaptureAbortedError) Unwrap() error { return e.Err }
