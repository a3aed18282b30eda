package browser

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/xkilldash9x/hyperaide-sync/internal/cookies"
	"go.uber.org/zap"
)

// Capture is the result of one completed browser session.
type Capture struct {
	Cookies        []cookies.RawCookie
	VisitedDomains []string
	StartedAt      time.Time
	EndedAt        time.Time
}

// BySite groups the captured cookies by normalized site domain.
func (c *Capture) BySite() map[string][]cookies.RawCookie {
	return cookies.GroupBySite(c.Cookies)
}

// Capture opens the browser and blocks until the user closes every window,
// ctx is cancelled, or the browser goes away. Only the first case yields a
// Capture; the others return *CaptureAbortedError. The temporary profile is
// removed before Capture returns, whatever the outcome.
func (d *Driver) Capture(ctx context.Context) (*Capture, error) {
	startedAt := time.Now()
	tracker := newPageTracker()

	s, err := d.launch(ctx, tracker)
	if err != nil {
		return nil, err
	}
	defer s.cancel()

	d.openWelcome(s)
	s.logger.Info("Browser ready; waiting for the user to close it.")
	if d.onReady != nil {
		d.onReady(s.browserCtx)
	}

	snap := &snapshot{}
	d.poll(s, tracker, snap)

	if err := d.waitForClose(ctx, s, tracker, snap); err != nil {
		return nil, err
	}

	final := snap.cookies
	if cks, err := readCookies(s.browserCtx, finalReadTimeout); err == nil {
		final = cks
	} else {
		s.logger.Debug("Final cookie read failed; using last snapshot.",
			zap.Error(err), zap.Time("snapshot_at", snap.at))
	}

	capture := &Capture{
		Cookies:        toRawCookies(final),
		VisitedDomains: tracker.Visited(),
		StartedAt:      startedAt,
		EndedAt:        time.Now(),
	}
	s.logger.Info("Capture complete.",
		zap.Int("cookies", len(capture.Cookies)),
		zap.Int("visited_domains", len(capture.VisitedDomains)),
		zap.Duration("duration", capture.EndedAt.Sub(startedAt)))
	return capture, nil
}

// snapshot is the last cookie store successfully read from the browser.
type snapshot struct {
	cookies []*network.Cookie
	at      time.Time
}

func (d *Driver) waitForClose(ctx context.Context, s *session, tracker *pageTracker, snap *snapshot) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &CaptureAbortedError{Reason: "interrupted", Err: ctx.Err()}

		case <-tracker.Closed():
			if ctx.Err() != nil {
				return &CaptureAbortedError{Reason: "interrupted", Err: ctx.Err()}
			}
			s.logger.Debug("Last browser window closed.")
			return nil

		case <-s.browserCtx.Done():
			if ctx.Err() != nil {
				return &CaptureAbortedError{Reason: "interrupted", Err: ctx.Err()}
			}
			// Target events are delivered before the connection drops, so a
			// user-closed window is already visible here.
			if tracker.isClosed() {
				return nil
			}
			return &CaptureAbortedError{
				Reason: fmt.Sprintf("browser exited with %d page(s) still open", tracker.OpenPages()),
				Err:    context.Cause(s.browserCtx),
			}

		case <-ticker.C:
			d.poll(s, tracker, snap)
		}
	}
}

// poll refreshes the visited domains and the cookie snapshot. Failures are
// expected while the browser shuts down and are only logged.
func (d *Driver) poll(s *session, tracker *pageTracker, snap *snapshot) {
	pollCtx, cancel := context.WithTimeout(s.browserCtx, pollCallTimeout)
	defer cancel()

	if infos, err := chromedp.Targets(pollCtx); err == nil {
		tracker.sync(infos)
	} else {
		s.logger.Debug("Listing targets failed.", zap.Error(err))
	}

	cks, err := readCookies(pollCtx, pollCallTimeout)
	if err != nil {
		s.logger.Debug("Cookie snapshot failed.", zap.Error(err))
		return
	}
	snap.cookies = cks
	snap.at = time.Now()
}

// readCookies reads the whole cookie store through the browser target.
// Storage.getCookies works on the browser session, so it keeps working after
// the first tab has been closed.
func readCookies(ctx context.Context, timeout time.Duration) ([]*network.Cookie, error) {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Browser == nil {
		return nil, chromedp.ErrInvalidContext
	}
	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return storage.GetCookies().Do(cdp.WithExecutor(readCtx, c.Browser))
}

// openWelcome loads the welcome page in the first tab. When it does not load
// in time the built-in fallback page is written into the tab instead, so the
// user still sees instructions.
func (d *Driver) openWelcome(s *session) {
	if d.welcomeURL == "" {
		d.showFallback(s)
		return
	}

	navCtx, cancel := context.WithTimeout(s.browserCtx, d.cfg.WelcomeTimeout)
	defer cancel()

	err := chromedp.Run(navCtx, chromedp.Navigate(d.welcomeURL))
	if err == nil {
		return
	}
	if s.browserCtx.Err() != nil {
		return
	}
	s.logger.Warn("Could not load welcome page; showing built-in page.",
		zap.String("url", d.welcomeURL), zap.Error(err))
	d.showFallback(s)
}

func (d *Driver) showFallback(s *session) {
	ctx, cancel := context.WithTimeout(s.browserCtx, d.cfg.WelcomeTimeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, fallbackPage).Do(ctx)
		}),
	)
	if err != nil {
		s.logger.Warn("Could not show fallback page.", zap.Error(err))
	}
}

// toRawCookies converts CDP cookies. A session cookie, or one without a
// usable expiry, gets a nil Expires.
func toRawCookies(in []*network.Cookie) []cookies.RawCookie {
	out := make([]cookies.RawCookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		rc := cookies.RawCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: cookies.SameSite(c.SameSite.String()),
		}
		if !c.Session && c.Expires > 0 && !math.IsInf(c.Expires, 0) && !math.IsNaN(c.Expires) {
			sec, frac := math.Modf(c.Expires)
			exp := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
			rc.Expires = &exp
		}
		out = append(out, rc)
	}
	return out
}
