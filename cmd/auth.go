package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIssue(commandContext(cmd), false)
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIssue(commandContext(cmd), true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear every cached collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.auth.Logout(ctx); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		a.logger.Info("Logged out", zap.String("scope", a.session.Scope()))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(commandContext(cmd))
		if err != nil {
			return err
		}
		defer a.close()

		if !a.session.Authenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		p := a.session.Profile()
		fmt.Printf("%s <%s>\nrole: %s\naudit log: %t\n", p.Name, p.Email, p.Role, p.CanViewAudit())
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
		_ = c.MarkFlagRequired("email")
	}
	signupCmd.Flags().StringVar(&authName, "name", "", "Display name")
	_ = signupCmd.MarkFlagRequired("name")

	RootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}

func runIssue(ctx context.Context, signup bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	password := authPassword
	if password == "" {
		if password, err = prompt("Password: "); err != nil {
			return err
		}
	}

	if signup {
		_, err = a.auth.Signup(ctx, authName, authEmail, password)
	} else {
		_, err = a.auth.Login(ctx, authEmail, password)
	}
	if err != nil {
		return err
	}

	p := a.session.Profile()
	a.logger.Info("Logged in", zap.String("user", p.Name), zap.String("role", p.Role))
	return nil
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
