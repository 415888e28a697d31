package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"maxflow/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		issuer  string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for solver-svc",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}
			m, err := auth.NewManager(auth.Config{Secret: secret, Issuer: issuer})
			if err != nil {
				return err
			}
			tok, err := m.Issue(subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&secret, "secret", "", "HS256 signing secret (MAXFLOW_AUTH_SECRET on the server)")
	f.StringVar(&subject, "subject", "", "token subject")
	f.StringVar(&issuer, "issuer", "maxflow", "token issuer")
	f.StringVar(&role, "role", "", "optional role claim")
	f.DurationVar(&ttl, "ttl", 0, "token lifetime (0 = 24h)")
	return cmd
}
