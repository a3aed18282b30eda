// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/xkilldash9x/hyperaide-sync/internal/config"
	"go.uber.org/zap"
)

const (
	profilePattern = "hyperaide-sync-profile-*"
	// finalReadTimeout bounds the cookie read after the window closed.
	finalReadTimeout = 2 * time.Second
	// pollCallTimeout bounds a single poll round trip to the browser.
	pollCallTimeout = 5 * time.Second
)

// Driver launches a visible browser on a throwaway profile and captures the
// cookie store when the user closes it. A Driver holds no per-run state and
// may be reused for sequential captures.
type Driver struct {
	cfg        config.BrowserConfig
	welcomeURL string
	logger     *zap.Logger

	// onReady, when set, runs once the welcome page is up. It receives the
	// browser context and must not block.
	onReady func(browserCtx context.Context)
}

// NewDriver creates a capture driver. welcomeURL is the first page shown.
func NewDriver(cfg config.BrowserConfig, welcomeURL string, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		cfg:        cfg,
		welcomeURL: welcomeURL,
		logger:     logger.Named("capture"),
	}
}

// session is one running browser and the contexts that own it.
type session struct {
	id         string
	profileDir string
	browserCtx context.Context
	logger     *zap.Logger
	cancel     func()
}

// launch creates the profile directory and starts the browser. The returned
// session's cancel stops the browser, waits for the process and removes the
// profile; it must always be called.
func (d *Driver) launch(ctx context.Context, tracker *pageTracker) (*session, error) {
	profileDir, err := os.MkdirTemp(d.cfg.ProfileRoot, profilePattern)
	if err != nil {
		return nil, &BrowserLaunchError{ExecPath: d.cfg.ExecPath, Err: fmt.Errorf("creating profile directory: %w", err)}
	}

	id := uuid.NewString()
	logger := d.logger.With(zap.String("capture_id", id))
	logger.Debug("Launching browser.", zap.String("profile_dir", profileDir), zap.String("exec_path", d.cfg.ExecPath))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(d.cfg, profileDir)...)
	sugar := logger.Sugar()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		// chromedp reports unknown CDP events as errors; they are noise here.
		chromedp.WithErrorf(sugar.Debugf),
	)

	s := &session{
		id:         id,
		profileDir: profileDir,
		browserCtx: browserCtx,
		logger:     logger,
	}
	s.cancel = func() {
		// Closing the first context closes the browser gracefully; cancelling
		// the allocator then kills whatever is left and waits for the process.
		cancelBrowser()
		cancelAlloc()
		removeProfile(profileDir, logger)
	}

	// Listeners added before the first Run are attached when the browser is
	// allocated, so the initial tab is observed too.
	chromedp.ListenBrowser(browserCtx, tracker.handleBrowserEvent)
	chromedp.ListenTarget(browserCtx, tracker.handleTargetEvent)

	// The first Run must use the un-timed context, or the browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		s.cancel()
		if ctx.Err() != nil {
			return nil, &CaptureAbortedError{Reason: "interrupted before the browser started", Err: ctx.Err()}
		}
		return nil, &BrowserLaunchError{ExecPath: d.cfg.ExecPath, Err: err}
	}
	return s, nil
}

// removeProfile deletes the temporary profile. chromedp leaves directories it
// was handed alone. Chrome can still be flushing files right after exit, so
// one retry is made.
func removeProfile(dir string, logger *zap.Logger) {
	err := os.RemoveAll(dir)
	if err != nil {
		time.Sleep(100 * time.Millisecond)
		err = os.RemoveAll(dir)
	}
	if err != nil {
		logger.Warn("Failed to remove temporary browser profile.", zap.String("profile_dir", dir), zap.Error(err))
		return
	}
	logger.Debug("Removed temporary browser profile.", zap.String("profile_dir", dir))
}

// launchFlags returns the browser switches keyed by name, without leading
// dashes. A bool true emits a bare switch; false suppresses it.
// chromedp.DefaultExecAllocatorOptions is deliberately not the base: it
// runs headless and sets enable-automation.
func launchFlags(cfg config.BrowserConfig) map[string]any {
	flags := map[string]any{
		"no-first-run":                           true,
		"no-default-browser-check":               true,
		"disable-blink-features":                 "AutomationControlled",
		"disable-breakpad":                       true,
		"disable-client-side-phishing-detection": true,
		"disable-default-apps":                   true,
		"disable-sync":                           true,
		"disable-features":                       "Translate",
	}

	switch runtime.GOOS {
	case "linux":
		flags["disable-dev-shm-usage"] = true
		// Avoids the keyring unlock dialog for the throwaway profile.
		flags["password-store"] = "basic"
	case "darwin":
		flags["use-mock-keychain"] = true
	}

	width, height := cfg.Viewport["width"], cfg.Viewport["height"]
	if width > 0 && height > 0 {
		flags["window-size"] = fmt.Sprintf("%d,%d", width, height)
	}
	if cfg.UserAgent != "" {
		flags["user-agent"] = cfg.UserAgent
	}

	for name, value := range parseArgs(cfg.Args) {
		flags[name] = value
	}
	return flags
}

// parseArgs turns config args such as "--lang=en-US", "no-zygote" or
// "enable-logging=false" into switch values.
func parseArgs(args []string) map[string]any {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			out[name] = true
			continue
		}
		if b, err := strconv.ParseBool(value); err == nil {
			out[name] = b
			continue
		}
		out[name] = value
	}
	return out
}

// allocatorOptions converts launchFlags into chromedp options for a browser
// running on profileDir.
func allocatorOptions(cfg config.BrowserConfig, profileDir string) []chromedp.ExecAllocatorOption {
	flags := launchFlags(cfg)
	opts := make([]chromedp.ExecAllocatorOption, 0, len(flags)+2)
	for name, value := range flags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	opts = append(opts, chromedp.UserDataDir(profileDir))
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}
