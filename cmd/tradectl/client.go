package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tradedesk.app/internal/registry"
)

func clientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage linked clients",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate [client-email]",
		Short: "Stop dispatching for a client until it authorizes again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			email, err := deactivateClient(cmd.Context(), registry.NewPGStore(db), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deactivated %s\n", email)
			return nil
		},
	})
	return cmd
}

func deactivateClient(ctx context.Context, clients registry.Store, raw string) (string, error) {
	email := registry.NormalizeEmail(raw)
	ok, err := clients.Deactivate(ctx, email)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("client %s not found", email)
	}
	return email, nil
}
