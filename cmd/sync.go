package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/hyperaide-sync/internal/config"
	"github.com/xkilldash9x/hyperaide-sync/internal/cookies"
	"github.com/xkilldash9x/hyperaide-sync/internal/observability"
)

// newSyncCmd creates the `sync` command, which is also what the bare
// command runs.
func newSyncCmd(opts *rootOptions, deps *dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Open a browser, log in to your sites, and sync their sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncCmd(cmd, opts, deps)
		},
	}
}

func runSyncCmd(cmd *cobra.Command, opts *rootOptions, deps *dependencies) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	p := newPrinter(cmd.OutOrStdout())
	p.banner()

	logger := observability.GetLogger().Named("sync")
	client, err := deps.connect(cfg, opts.token, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	return runSync(ctx, p, cfg, client, deps, logger)
}

// runSync holds the sync flow: start, capture, classify, upload, report.
// Nothing is uploaded unless the capture completed and found auth cookies.
func runSync(ctx context.Context, p *printer, cfg *config.Config, client syncClient, deps *dependencies, logger *zap.Logger) error {
	start, err := client.Start(ctx)
	if err != nil {
		return err
	}
	if start.Existing && len(start.ConnectedSites) > 0 {
		p.step("Found %d previously connected site(s)", len(start.ConnectedSites))
		p.blank()
	}

	p.step("Opening secure browser window...")
	p.subtle("Log in to your sites. Close the browser when done.")

	capture, err := deps.newCapturer(cfg, logger).Capture(ctx)
	if err != nil {
		return err
	}

	if n := len(capture.VisitedDomains); n > 0 {
		p.step("Captured session data from %d domain(s)", n)
	} else {
		p.step("No domains visited")
	}

	classified := cookies.NewClassifier(cfg.Classifier).Classify(capture.Cookies)
	bundles := cookies.Bundle(classified)
	logger.Info("Classified captured cookies",
		zap.Int("captured", len(capture.Cookies)),
		zap.Int("auth", cookies.CookieCount(bundles)),
		zap.Int("sites", len(bundles)),
		zap.Duration("session", capture.EndedAt.Sub(capture.StartedAt)),
	)
	if len(bundles) == 0 {
		p.fail("No authentication cookies captured")
		p.subtle("Did you log in before closing the browser?")
		return reported(errNoAuthCookies)
	}

	result, err := client.Sync(ctx, bundles, capture.VisitedDomains)
	if err != nil {
		return err
	}

	p.blank()
	rejected := result.Rejected()
	if accepted := len(result.Sites) - rejected; accepted > 0 {
		p.succeed("Successfully synced %d site(s)", accepted)
	}
	if rejected > 0 {
		p.fail("%d site(s) could not be synced", rejected)
	}
	p.blank()
	p.syncResultTable(result)

	p.blank()
	p.subtle("Manage connected sites at %s", cfg.API.ManageURL)
	p.blank()

	if rejected > 0 {
		return reported(fmt.Errorf("%w: %d of %d", errSitesRejected, rejected, len(result.Sites)))
	}
	return nil
}
