package main

import (
	"context"
	"errors"
	"fmt"

	"sftpTerm/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newKnownHostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "known-hosts",
		Short: "Manage trusted SSH host keys",
	}
	cmd.AddCommand(newKnownHostsAcceptCmd(a))
	return cmd
}

func newKnownHostsAcceptCmd(a *app) *cobra.Command {
	var fingerprint string
	cmd := &cobra.Command{
		Use:   "accept <connection-id>",
		Short: "Trust the host key presented by a saved connection",
		Long: "accept connects to a saved connection and stores its unknown host key in known_hosts.\n" +
			"With --fingerprint the key is stored only when it matches.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			res := svc.ConnectSaved(cmd.Context(), args[0])
			if res.Success {
				if res := svc.Disconnect(context.Background()); !res.Success {
					logging.L().Warn("disconnect failed", zap.String("error", res.Error))
				}
				fmt.Fprintln(out, "host key already trusted")
				return nil
			}
			hk := res.HostKey
			if hk == nil {
				return fmt.Errorf("connect: %s", res.Error)
			}
			if fingerprint != "" && fingerprint != hk.Fingerprint {
				return fmt.Errorf("%s presents %s, expected %s", hk.Host, hk.Fingerprint, fingerprint)
			}
			if res := svc.AcceptHostKey(hk.Host, hk.Fingerprint); !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintf(out, "%s %s\n", hk.Host, hk.Fingerprint)
			return nil
		},
	}
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "expected SHA256 fingerprint of the host key")
	return cmd
}
