package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/hyperaide-sync/internal/observability"
	"github.com/xkilldash9x/hyperaide-sync/internal/syncapi"
)

// newStatusCmd creates the `status` command.
func newStatusCmd(opts *rootOptions, deps *dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which sites are currently synced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.banner()

			client, err := deps.connect(cfg, opts.token, cmd.ErrOrStderr(), observability.GetLogger().Named("status"))
			if err != nil {
				return err
			}
			return runStatus(ctx, p, client)
		},
	}
}

func runStatus(ctx context.Context, p *printer, client syncClient) error {
	report, err := client.Status(ctx)
	if err != nil {
		return err
	}

	switch {
	case report.Status == syncapi.StatusNotSynced:
		p.step("No browser sync configured")
		p.subtle("Run hyperaide-sync to sync your browser authentication")
	case len(report.ConnectedSites) == 0:
		p.warn("Browser sync is active but no sites are connected")
	default:
		p.connectedSitesTable(report.ConnectedSites, true)
		if ts, ok := report.LastSynced(); ok {
			p.blank()
			p.subtle("Last synced: %s", ts.Local().Format(time.RFC1123))
		} else if report.LastSyncedAt != "" {
			p.blank()
			p.subtle("Last synced: %s", report.LastSyncedAt)
		}
	}
	return nil
}
