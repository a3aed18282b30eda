package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/hyperaide-sync/internal/observability"
)

const resetPrompt = "This will disconnect all synced sites. Are you sure?"

// newResetCmd creates the `reset` command.
func newResetCmd(opts *rootOptions, deps *dependencies) *cobra.Command {
	var force bool

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Disconnect all synced sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.banner()

			client, err := deps.connect(cfg, opts.token, cmd.ErrOrStderr(), observability.GetLogger().Named("reset"))
			if err != nil {
				return err
			}
			return runReset(ctx, p, cmd.InOrStdin(), client, force)
		},
	}

	resetCmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return resetCmd
}

func runReset(ctx context.Context, p *printer, in io.Reader, client syncClient, force bool) error {
	if !force {
		ok, err := confirm(p.out, in, resetPrompt)
		if err != nil {
			return err
		}
		if !ok {
			p.subtle("Reset cancelled")
			return nil
		}
	}

	result, err := client.Reset(ctx)
	if err != nil {
		return err
	}
	if !result.Reset {
		if result.Message != "" {
			return fmt.Errorf("reset was not applied: %s", result.Message)
		}
		return errors.New("reset was not applied")
	}

	p.succeed("Browser sync has been reset")
	if result.Message != "" {
		p.subtle("%s", result.Message)
	}
	p.subtle("Run hyperaide-sync to start a new session")
	return nil
}

// confirm asks a yes/no question that defaults to no. End of input is a no.
func confirm(out io.Writer, in io.Reader, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(out)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
