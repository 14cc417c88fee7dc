// Command tradectl is the operator tool for schema migrations, advisor
// provisioning and client deactivation.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tradedesk.app/internal/config"
	"tradedesk.app/internal/store/pg"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "tradectl",
		Short:         "Operator tool for the tradedesk service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(advisorCmd())
	rootCmd.AddCommand(clientCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	dsn, err := config.DatabaseOnly()
	if err != nil {
		return nil, err
	}
	return pg.Open(ctx, dsn)
}
