package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Eninte/ai-resource-navigator/internal/adminauth"
	"github.com/Eninte/ai-resource-navigator/internal/iphash"
	"github.com/Eninte/ai-resource-navigator/internal/redirect"
)

var errNoSecret = errors.New("no token secret configured (set URL_SIGNING_SECRET or pass --secret)")

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for security.admin_password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := adminauth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func hashIPCmd(opts *options) *cobra.Command {
	var salt string
	cmd := &cobra.Command{
		Use:   "hash-ip <ip>",
		Short: "Print the salted hash stored for a client address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if salt == "" {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				salt = cfg.Security.IPSalt
			}
			fmt.Fprintln(cmd.OutOrStdout(), iphash.New(salt).Hash(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&salt, "salt", "", "salt override (default security.ip_salt)")
	return cmd
}

// tokenFlags are shared by issue-token and verify-token.
type tokenFlags struct {
	secret string
	ttl    time.Duration
}

func (f *tokenFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.secret, "secret", "", "signing secret override (default security.token_secret)")
	cmd.Flags().DurationVar(&f.ttl, "ttl", 0, "token lifetime override (default security.token_ttl)")
}

func (f *tokenFlags) service(opts *options) (*redirect.Service, error) {
	secret, ttl := f.secret, f.ttl
	if secret == "" || ttl == 0 {
		cfg, err := opts.load()
		if err != nil {
			return nil, err
		}
		if secret == "" {
			secret = cfg.TokenSecret()
		}
		if ttl == 0 {
			ttl = cfg.Security.TokenTTL
		}
	}
	if secret == "" {
		return nil, errNoSecret
	}
	return redirect.NewService(secret, ttl)
}

func issueTokenCmd(opts *options) *cobra.Command {
	flags := &tokenFlags{}
	cmd := &cobra.Command{
		Use:   "issue-token <resource-id>",
		Short: "Issue a redirect token for a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(opts)
			if err != nil {
				return err
			}
			token, err := svc.Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func verifyTokenCmd(opts *options) *cobra.Command {
	flags := &tokenFlags{}
	cmd := &cobra.Command{
		Use:   "verify-token <token> <resource-id>",
		Short: "Check a redirect token against a resource id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.service(opts)
			if err != nil {
				return err
			}
			if !svc.Verify(args[0], args[1]) {
				return errors.New("token invalid")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token valid")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
