package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bakery/storefront/internal/domain/account"
	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
)

func authCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in and out",
	}

	var creds account.Credentials
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in; the session is kept for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.readPassword(&creds); err != nil {
				return err
			}
			client, err := a.api()
			if err != nil {
				return err
			}
			u, err := account.NewAuth(client).Login(cmd.Context(), creds)
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not sign in"))
				return err
			}
			a.fb.Success("signed in as " + u.Email)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	loginCmd.Flags().StringVar(&creds.Password, "password", "", "password (read from stdin when omitted)")

	var reg account.Registration
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.readPassword(&reg.Credentials); err != nil {
				return err
			}
			client, err := a.api()
			if err != nil {
				return err
			}
			u, err := account.NewAuth(client).Register(cmd.Context(), reg)
			if err != nil {
				a.fb.Failure(apiclient.Message(err, "could not register"))
				return err
			}
			a.fb.Success(fmt.Sprintf("registered %s as %s", u.Email, u.Role))
			return nil
		},
	}
	registerCmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	registerCmd.Flags().StringVar(&reg.Password, "password", "", "password (read from stdin when omitted)")
	registerCmd.Flags().StringVar(&reg.Name, "name", "", "display name")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			if err := account.NewAuth(client).Logout(cmd.Context()); err != nil {
				a.logger.Warn().Err(err).Msg("logout request failed")
			}
			if err := a.jar.Clear(); err != nil {
				return err
			}
			a.fb.Success("signed out")
			return nil
		},
	}

	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			u, err := account.NewAuth(client).Me(cmd.Context())
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Fprintln(a.out, "not signed in")
				return nil
			}
			fmt.Fprintf(a.out, "%s %s (%s)\n", u.Email, u.Name, u.Role)
			return nil
		},
	}

	cmd.AddCommand(loginCmd, registerCmd, logoutCmd, meCmd)
	return cmd
}

// readPassword fills in a password that was not given as a flag from the
// first line of input.
func (a *app) readPassword(c *account.Credentials) error {
	if c.Password != "" {
		return nil
	}
	fmt.Fprint(a.errOut, "password: ")
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	c.Password = strings.TrimRight(line, "\r\n")
	return nil
}

func usersCmd(a *app) *cobra.Command {
	users := func() (*account.Users, error) {
		client, err := a.api()
		if err != nil {
			return nil, err
		}
		return account.NewUsers(client, a.controllerOpts()...), nil
	}

	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage accounts and roles",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := users()
			if err != nil {
				return err
			}
			snap, err := u.List(cmd.Context(), resource.Query{})
			if err != nil {
				return err
			}
			tw := newTable(a.out, "ID", "EMAIL", "NAME", "ROLE")
			for _, x := range snap.Items {
				row(tw, x.ID, x.Email, x.Name, x.Role)
			}
			return tw.Flush()
		},
	}

	roleCmd := &cobra.Command{
		Use:   "role <id> <role>",
		Short: "Change a user's role",
		Long:  "Roles: " + roleNames() + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := account.ParseRole(args[1])
			if err != nil {
				return err
			}
			u, err := users()
			if err != nil {
				return err
			}
			return u.SetRole(cmd.Context(), args[0], role)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := users()
			if err != nil {
				return err
			}
			u.RequestDelete(args[0], "Delete user", "Delete user "+args[0]+"?")
			return a.resolve(cmd.Context(), u.Gate())
		},
	}

	cmd.AddCommand(listCmd, roleCmd, deleteCmd)
	return cmd
}

func roleNames() string {
	names := make([]string, len(account.Roles))
	for i, r := range account.Roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func modulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Optional tenant modules",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "activate <module>",
		Short: "Turn on a module such as clinic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.api()
			if err != nil {
				return err
			}
			if err := account.ActivateModule(cmd.Context(), client, args[0]); err != nil {
				a.fb.Failure(apiclient.Message(err, "could not activate "+args[0]))
				return err
			}
			a.fb.Success(args[0] + " module active")
			return nil
		},
	})
	return cmd
}
