package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benvon/smart-auth/internal/database"
	"github.com/benvon/smart-auth/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewUserCmd creates the user command
func NewUserCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect and manage users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <email|id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, cleanup, err := open(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := findUser(ctx, app.Users, args[0])
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <email|id>",
		Short: "Revoke every token of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, cleanup, err := open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := findUser(ctx, app.Users, args[0])
			if err != nil {
				return err
			}
			if err := app.Service.Revoke(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to revoke tokens: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked tokens for %s\n", user.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <email|id>",
		Short: "Soft-delete a user and revoke its tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, cleanup, err := open(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := findUser(ctx, app.Users, args[0])
			if err != nil {
				return err
			}
			if err := app.Service.DeleteUser(ctx, user); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", user.ID)
			return nil
		},
	})

	return cmd
}

// findUser resolves a user id or, failing that, an email address
func findUser(ctx context.Context, users database.UserDirectory, ref string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		user, err = users.FindByID(ctx, id)
	} else {
		user, err = users.FindByEmail(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", ref, err)
	}
	return user, nil
}

func printUser(w io.Writer, user *models.User) {
	fmt.Fprintf(w, "ID:       %s\n", user.ID)
	fmt.Fprintf(w, "Email:    %s\n", user.Email)
	if user.FullName != nil {
		fmt.Fprintf(w, "Name:     %s\n", *user.FullName)
	}
	fmt.Fprintf(w, "Role:     %s\n", user.Role)
	if user.Identity != nil {
		fmt.Fprintf(w, "Provider: %s (%s)\n", user.Identity.Provider, user.Identity.SubjectID)
	} else {
		fmt.Fprintln(w, "Provider: password")
	}
	if at, deleted := user.DeletedAt(); deleted {
		fmt.Fprintf(w, "Status:   deleted at %s\n", at.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "Status:   active")
	}
	fmt.Fprintf(w, "Created:  %s\n", user.CreatedAt.Format(time.RFC3339))
}
