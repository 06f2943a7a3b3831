package main

import (
	"errors"
	"fmt"
	"strconv"

	"sftpTerm/internal/models"
	"sftpTerm/internal/ui"

	"github.com/spf13/cobra"
)

func newConnectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage saved connections",
	}
	cmd.AddCommand(
		newConnectionsListCmd(a),
		newConnectionsAddCmd(a),
		newConnectionsDeleteCmd(a),
	)
	return cmd
}

func newConnectionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res := svc.GetSavedConnections()
			if !res.Success {
				return errors.New(res.Error)
			}
			if len(res.Profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved connections")
				return nil
			}

			rows := make([][]string, 0, len(res.Profiles))
			for _, p := range res.Profiles {
				auth := "password"
				if p.KeyPath != "" {
					auth = "key"
				}
				rows = append(rows, []string{
					p.ID, p.Label(), p.Host, strconv.Itoa(p.Identity().Port), p.Username, auth,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.CreateLipglossTable(
				[]string{"ID", "Name", "Host", "Port", "User", "Auth"}, rows...))
			return nil
		},
	}
}

func newConnectionsAddCmd(a *app) *cobra.Command {
	var p models.Profile
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a connection (updates the existing one for the same host, port and user)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res := svc.SaveConnection(p)
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Profile.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "display name")
	f.StringVar(&p.Host, "host", "", "host name or address")
	f.IntVar(&p.Port, "port", models.DefaultPort, "SSH port")
	f.StringVarP(&p.Username, "user", "u", "", "user name")
	f.StringVar(&p.Password, "password", "", "password (also used for sudo)")
	f.StringVar(&p.KeyPath, "key", "", "private key path")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newConnectionsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved connection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if res := svc.DeleteConnection(args[0]); !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
}
