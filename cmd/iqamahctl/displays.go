package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
)

func newReloadCmd(a *app) *cobra.Command {
	var reason string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask every display to reload and wait for acknowledgments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, closeFn, err := a.backends.notifier(a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := n.Reload(cmd.Context(), reason, timeout)
			if err != nil {
				return err
			}
			return a.printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual reload", "reason shown in display logs")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for acknowledgments (default from ACK_TIMEOUT)")
	return cmd
}

func newAnnounceCmd(a *app) *cobra.Command {
	var text string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Push a text announcement to every display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, closeFn, err := a.backends.notifier(a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := n.Announce(cmd.Context(), text, timeout)
			if err != nil {
				return err
			}
			return a.printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "announcement text")
	_ = cmd.MarkFlagRequired("text")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for acknowledgments (default from ACK_TIMEOUT)")
	return cmd
}

func (a *app) printResult(cmd *cobra.Command, res ack.Result) error {
	outcome := ack.Summarize(res)
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), struct {
			ack.Result
			Outcome ack.Outcome `json:"outcome"`
		}{res, outcome})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", outcome.Level, outcome.Message)
	return err
}
