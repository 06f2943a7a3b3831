package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sftpTerm/internal/api"
	"sftpTerm/internal/logging"
	"sftpTerm/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withSession łączy się z zapisanym profilem, wykonuje fn i rozłącza
func (a *app) withSession(ctx context.Context, id string, fn func(*api.Service) error) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	if res := svc.ConnectSaved(ctx, id); !res.Success {
		return resultError("connect", res)
	}
	defer func() {
		if res := svc.Disconnect(context.Background()); !res.Success {
			logging.L().Warn("disconnect failed", zap.String("error", res.Error))
		}
	}()
	return fn(svc)
}

// exitCodeError przenosi kod wyjścia zdalnego polecenia do procesu
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// resultError zamienia nieudany wynik na błąd z podpowiedzią o --sudo
func resultError(op string, res api.Result) error {
	if res.Success {
		return nil
	}
	if res.NeedsSudo() {
		return fmt.Errorf("%s: %s (retry with --sudo)", op, res.Error)
	}
	if res.HostKey != nil {
		return fmt.Errorf("%s: %s (check the fingerprint, then run known-hosts accept)", op, res.Error)
	}
	return fmt.Errorf("%s: %s", op, res.Error)
}

func newLsCmd(a *app) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "ls <connection-id> [path]",
		Short: "List a remote directory (or a local one with --local)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(ctx, args[0], func(svc *api.Service) error {
				var res api.Result
				switch {
				case local && len(args) == 2:
					res = svc.ListLocal(ctx, args[1])
				case local:
					home := svc.GetLocalHome(ctx)
					if err := resultError("home", home); err != nil {
						return err
					}
					res = svc.ListLocal(ctx, home.Path)
				case len(args) == 2:
					res = svc.List(ctx, args[1])
				default:
					home := svc.GetRemoteHome(ctx)
					if err := resultError("home", home); err != nil {
						return err
					}
					res = svc.List(ctx, home.Path)
				}
				if err := resultError("ls", res); err != nil {
					return err
				}

				rows := make([][]string, 0, len(res.Files))
				for _, f := range res.Files {
					size := ""
					if !f.IsDir() {
						size = fmt.Sprintf("%d", f.Size)
					}
					rows = append(rows, []string{
						f.Mode.String(), size, f.ModTime.Format("2006-01-02 15:04"), f.Name,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.CreateLipglossTable(
					[]string{"Mode", "Size", "Modified", "Name"}, rows...))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "list the local file system instead")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var useSudo bool
	cmd := &cobra.Command{
		Use:   "get <connection-id> <remote-path> [local-dir]",
		Short: "Download a remote file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := "."
			if len(args) == 3 {
				dir = args[2]
			}
			return a.withSession(ctx, args[0], func(svc *api.Service) error {
				res := svc.Download(ctx, args[1], dir, useSudo)
				if err := resultError("get", res); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&useSudo, "sudo", false, "read the file through sudo")
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	var useSudo bool
	cmd := &cobra.Command{
		Use:   "put <connection-id> <local-path> <remote-path>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(ctx, args[0], func(svc *api.Service) error {
				return resultError("put", svc.Put(ctx, args[1], args[2], useSudo))
			})
		},
	}
	cmd.Flags().BoolVar(&useSudo, "sudo", false, "write the file through sudo")
	return cmd
}

func newSudoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sudo <connection-id> -- <command> [args...]",
		Short: "Run a command through sudo on the remote host",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withSession(ctx, args[0], func(svc *api.Service) error {
				res := svc.ExecuteSudoCommand(ctx, args[1], args[2:]...)
				out := res.Output
				if out != "" && !strings.HasSuffix(out, "\n") {
					out += "\n"
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				if res.Success {
					return nil
				}
				if res.ExitCode != 0 {
					return &exitCodeError{code: res.ExitCode}
				}
				return errors.New(res.Error)
			})
		},
	}
}
