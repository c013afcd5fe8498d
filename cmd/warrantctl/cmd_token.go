package main

import (
	"fmt"
	"os"
	"time"

	"warrantboard/pkg/auth"

	"github.com/spf13/cobra"
)

type tokenOptions struct {
	secret   string
	issuer   string
	playerID string
	roles    []string
	ttl      time.Duration
}

func newTokenCmd() *cobra.Command {
	opts := tokenOptions{secret: os.Getenv("JWT_SECRET")}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT for a player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := mintToken(opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.secret, "secret", opts.secret, "HS256 secret (defaults to $JWT_SECRET)")
	f.StringVar(&opts.issuer, "issuer", "warrantboard", "token issuer")
	f.StringVarP(&opts.playerID, "player", "p", "", "player id (token subject)")
	f.StringSliceVar(&opts.roles, "roles", nil, "comma separated roles")
	f.DurationVar(&opts.ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("player")
	return cmd
}

func mintToken(opts tokenOptions) (string, error) {
	if opts.secret == "" {
		return "", fmt.Errorf("a secret is required: pass --secret or set JWT_SECRET")
	}
	gen, err := auth.NewJWTGenerator(auth.JWTConfig{
		SecretKey:  opts.secret,
		Issuer:     opts.issuer,
		ExpiryTime: opts.ttl,
	})
	if err != nil {
		return "", err
	}
	return gen.GenerateToken(opts.playerID, opts.roles)
}
