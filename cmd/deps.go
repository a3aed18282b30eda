package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/xkilldash9x/hyperaide-sync/internal/browser"
	"github.com/xkilldash9x/hyperaide-sync/internal/config"
	"github.com/xkilldash9x/hyperaide-sync/internal/cookies"
	"github.com/xkilldash9x/hyperaide-sync/internal/credential"
	"github.com/xkilldash9x/hyperaide-sync/internal/syncapi"
)

// capturer runs one interactive browser session.
type capturer interface {
	Capture(ctx context.Context) (*browser.Capture, error)
}

// syncClient is the subset of *syncapi.Client the commands use.
type syncClient interface {
	Start(ctx context.Context) (*syncapi.StartResult, error)
	Sync(ctx context.Context, bundles []cookies.SiteAuthBundle, visited []string) (*syncapi.SyncResult, error)
	Status(ctx context.Context) (*syncapi.SyncStatusReport, error)
	Reset(ctx context.Context) (*syncapi.ResetResult, error)
}

// dependencies holds the factories for everything that touches the outside
// world, so tests can swap in fakes.
type dependencies struct {
	newCapturer func(cfg *config.Config, logger *zap.Logger) capturer
	newClient   func(cfg *config.Config, token string, logger *zap.Logger) (syncClient, error)
	newPrompt   func(out io.Writer) credential.Source
}

func defaultDependencies() *dependencies {
	return &dependencies{
		newCapturer: func(cfg *config.Config, logger *zap.Logger) capturer {
			return browser.NewDriver(cfg.Browser, cfg.WelcomeURL(), logger)
		},
		newClient: func(cfg *config.Config, token string, logger *zap.Logger) (syncClient, error) {
			return syncapi.NewClient(syncapi.Config{
				BaseURL:       cfg.APIBaseURL(),
				Token:         token,
				UserAgent:     "hyperaide-sync/" + Version,
				Timeout:       cfg.API.Timeout,
				UploadTimeout: cfg.API.UploadTimeout,
				Logger:        logger,
			})
		},
		newPrompt: func(out io.Writer) credential.Source {
			return credential.NewPrompt(out)
		},
	}
}

// connect resolves the API key and builds a client for it.
func (d *dependencies) connect(cfg *config.Config, flagToken string, promptOut io.Writer, logger *zap.Logger) (syncClient, error) {
	cred, err := credential.Resolve(
		credential.Value{Label: "--token", Token: flagToken},
		credential.Env{Key: cfg.API.TokenEnv},
		d.newPrompt(promptOut),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("Resolved API key", zap.String("source", cred.Source))

	client, err := d.newClient(cfg, cred.Token, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}
