package main

import (
	"fmt"

	"github.com/YK-03/SharePlate/internal/cache"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/service"

	"github.com/spf13/cobra"
)

var newUser service.RegisterInput

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		tokens := cache.NewMemoryCache()
		defer tokens.Close()

		auth := service.NewAuthService(store, tokens, cfg.Auth, log)
		user, _, err := auth.Register(ctx, newUser)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %d <%s> as %s\n", user.ID, user.Email, user.Role)
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUser.Email, "email", "", "Email address (required)")
	f.StringVar(&newUser.Password, "password", "", "Password (required)")
	f.StringVar((*string)(&newUser.Role), "role", string(model.RoleDonor), "Role: donor, recipient or volunteer")
	f.StringVar(&newUser.FirstName, "first-name", "", "First name")
	f.StringVar(&newUser.LastName, "last-name", "", "Last name")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")
}
