package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-console/internal/auth"
	"github.com/ukydev/fleet-console/internal/models"
)

func bindUserUpdate(cmd *cobra.Command, in *models.UserUpdate) {
	fs := cmd.Flags()
	fs.StringVar(&in.Email, "email", "", "email address")
	fs.StringVar(&in.FirstName, "first-name", "", "first name")
	fs.StringVar(&in.LastName, "last-name", "", "last name")
	fs.StringVar(&in.Phone, "phone", "", "phone number")
	fs.StringVar(&in.Address, "address", "", "address")
	fs.StringVar(&in.Password, "password", "", "new password")
}

func validateUserUpdate(in models.UserUpdate) error {
	if in.Email != "" {
		if err := auth.ValidateEmail(in.Email); err != nil {
			return err
		}
	}
	if in.Password != "" {
		return auth.ValidatePassword(in.Password)
	}
	return nil
}

func newUsersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin)",
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.Client.GetUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}

	var in models.UserUpdate
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := validateUserUpdate(in); err != nil {
				return err
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.Client.UpdateUser(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	bindUserUpdate(update, &in)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Client.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(get, update, del)
	return cmd
}

func newProfileCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Your own profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.Client.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}

	var in models.UserUpdate
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateUserUpdate(in); err != nil {
				return err
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.Client.UpdateMe(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	bindUserUpdate(update, &in)

	cmd.AddCommand(show, update)
	return cmd
}
