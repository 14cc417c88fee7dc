package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tradedesk.app/internal/auth"
)

func advisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Manage advisor accounts",
	}

	var (
		email    string
		fullName string
		stdin    bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an advisor account",
		Long: `Create an advisor account. The password is read from the first line of stdin
when --password-stdin is set, otherwise from the TRADEDESK_ADVISOR_PASSWORD environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, stdin)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := auth.NewService(auth.NewPGAdvisorStore(db), nil, auth.DefaultHasher)
			a, err := svc.CreateAdvisor(cmd.Context(), auth.NewAdvisor{Email: email, Password: password, FullName: fullName})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created advisor %s (%s)\n", a.Email, a.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "advisor email")
	create.Flags().StringVar(&fullName, "name", "", "advisor full name")
	create.Flags().BoolVar(&stdin, "password-stdin", false, "read the password from stdin")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if !fromStdin {
		if pw := os.Getenv("TRADEDESK_ADVISOR_PASSWORD"); pw != "" {
			return pw, nil
		}
		return "", errors.New("set TRADEDESK_ADVISOR_PASSWORD or use --password-stdin")
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
