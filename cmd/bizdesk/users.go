package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizdesk/bizdesk/internal/auth"
	"github.com/bizdesk/bizdesk/internal/shared"
)

func newUsersCmd(rt *runtime) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	var input auth.NewUserInput
	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a user account",
		Example: `  bizdesk users create --email ana@example.com --name "Ana Souza" --role admin --password s3cretpass`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := rt.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			service := auth.NewService(auth.NewRepository(pool), auth.NewTokenIssuer(rt.cfg.JWTSecret, rt.cfg.JWTTTL))
			user, err := service.CreateUser(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s> role=%s\n", user.ID, user.Email, user.Role)
			return nil
		},
	}
	create.Flags().StringVar(&input.Email, "email", "", "login email")
	create.Flags().StringVar(&input.Name, "name", "", "display name")
	create.Flags().StringVar(&input.Password, "password", "", "initial password (min 8 characters)")
	create.Flags().StringVar(&input.Role, "role", shared.RoleSeller, "admin or seller")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("password")

	users.AddCommand(create)
	return users
}
