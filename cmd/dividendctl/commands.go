package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/thedividend/dividend/internal/content"
	"github.com/thedividend/dividend/internal/payment"
	"github.com/thedividend/dividend/internal/tokens"
	"github.com/thedividend/dividend/internal/users"
)

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render stored article content JSON to HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			doc, err := content.Parse(raw)
			if err != nil {
				return err
			}
			if plain, _ := cmd.Flags().GetBool("plain"); plain {
				text := content.PlainText(doc)
				fmt.Fprintln(cmd.OutOrStdout(), text)
				fmt.Fprintf(cmd.OutOrStdout(), "read time: %d min\n", content.ReadTime(text))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), content.NewRenderer().HTML(doc))
			return nil
		},
	}
	cmd.Flags().Bool("plain", false, "Print plain text and estimated read time instead of HTML")
	return cmd
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [file|-]",
		Short: "Compute the x-paystack-signature for a webhook body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				secret = os.Getenv("PAYSTACK_WEBHOOK_SECRET")
			}
			if secret == "" {
				secret = os.Getenv("PAYSTACK_SECRET_KEY")
			}
			if secret == "" {
				return errors.New("no secret: pass --secret or set PAYSTACK_WEBHOOK_SECRET")
			}
			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payment.Sign([]byte(secret), body))
			return nil
		},
	}
	cmd.Flags().String("secret", "", "Webhook secret (defaults to PAYSTACK_WEBHOOK_SECRET, then PAYSTACK_SECRET_KEY)")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 access token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			sub, _ := cmd.Flags().GetString("sub")
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if role != users.RoleUser && role != users.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := tokens.GenerateAccessToken(secret, &users.User{Sub: sub, Email: email, Name: name, Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().String("sub", "", "Subject (user id)")
	cmd.Flags().String("email", "", "Email claim")
	cmd.Flags().String("name", "", "Name claim")
	cmd.Flags().String("role", users.RoleUser, "Role claim (user|admin)")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
