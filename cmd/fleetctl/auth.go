package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/auth"
	"github.com/ukydev/fleet-console/internal/models"
)

func newLoginCmd(c *cli) *cobra.Command {
	var req models.LoginRequest
	var role string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			req.Role = r
			if req.Username == "" || req.Password == "" {
				return fmt.Errorf("username and password are required")
			}

			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			sess, err := a.Client.Login(cmd.Context(), req)
			if err != nil {
				return errors.New(api.UserMessage(err, api.MsgLoginFailed))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", sess.Username, sess.Role.Title())
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password")
	cmd.Flags().StringVarP(&role, "role", "r", string(models.RoleCustomer), "role to sign in as")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if !a.Session.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			sess, err := a.Session.Current()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d, %s)\n", sess.Username, sess.UserID, sess.Role.Title())
			return nil
		},
	}
}

func newRegisterCmd(c *cli) *cobra.Command {
	var req models.RegisterRequest
	var role, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			req.Role = r
			if confirm == "" {
				confirm = req.Password
			}
			if err := auth.ValidateRegistration(req, confirm); err != nil {
				return err
			}

			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := a.Client.Register(cmd.Context(), req)
			if err != nil {
				return errors.New(api.UserMessage(err, "Registration failed. Please try again."))
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVarP(&role, "role", "r", string(models.RoleCustomer), "account role")
	return cmd
}
