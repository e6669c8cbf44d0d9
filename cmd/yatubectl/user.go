package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sujalbistaa/yatube/internal/auth"
	"github.com/sujalbistaa/yatube/internal/forms"
)

var userForm forms.SignupForm

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user",
	Long: `Register a user with the same rules as the signup form.

Examples:
  yatubectl user create --username leo --password war-and-peace --first-name Leo --last-name Tolstoy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if errs := userForm.Validate(); errs.Any() {
			return formError(errs)
		}
		repo, cfg, err := openRepo()
		if err != nil {
			return err
		}
		svc := auth.NewService(repo, cfg.Security.SessionTTL)
		u, err := svc.Register(cmd.Context(), userForm.Username, userForm.Password, userForm.FirstName, userForm.LastName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %q (id %d)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVar(&userForm.Username, "username", "", "Username")
	userCreateCmd.Flags().StringVar(&userForm.Password, "password", "", "Password (at least 8 characters)")
	userCreateCmd.Flags().StringVar(&userForm.FirstName, "first-name", "", "First name")
	userCreateCmd.Flags().StringVar(&userForm.LastName, "last-name", "", "Last name")
	userCreateCmd.MarkFlagRequired("username")
	userCreateCmd.MarkFlagRequired("password")
}
