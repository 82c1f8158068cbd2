package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func readPassword(cmd *cobra.Command, fromStdin bool, password string) (string, error) {
	if !fromStdin {
		return password, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(s *state) *cobra.Command {
	var email, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, passwordStdin, password)
			if err != nil {
				return err
			}
			out, err := a.Auth.Login(cmd.Context(), email, pw)
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, out)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and delete the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			if err := a.Logout(cmd.Context()); err != nil {
				return err
			}
			return writeOut(cmd, s, map[string]bool{"logged_out": true})
		},
	}
}

func newSignUpCmd(s *state) *cobra.Command {
	var email, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; a confirmation code is sent by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, passwordStdin, password)
			if err != nil {
				return err
			}
			out, err := a.Auth.SignUp(cmd.Context(), email, pw)
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, out)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newConfirmCmd(s *state) *cobra.Command {
	var email, code string
	var resend bool

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a new account with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			if resend {
				if err := a.Auth.ResendCode(cmd.Context(), email); err != nil {
					return explain(err)
				}
				return writeOut(cmd, s, map[string]bool{"code_sent": true})
			}
			if err := a.Auth.ConfirmSignUp(cmd.Context(), email, code); err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, map[string]bool{"confirmed": true})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&code, "code", "", "Confirmation code")
	cmd.Flags().BoolVar(&resend, "resend", false, "Send a new confirmation code instead")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newPasswordCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset or change the account password",
	}

	var forgotEmail string
	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Email a password reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			if err := a.Auth.ForgotPassword(cmd.Context(), forgotEmail); err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, map[string]bool{"code_sent": true})
		},
	}
	forgot.Flags().StringVar(&forgotEmail, "email", "", "Account email")

	var resetEmail, resetCode, resetPassword string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			if err := a.Auth.ConfirmForgotPassword(cmd.Context(), resetEmail, resetCode, resetPassword); err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, map[string]bool{"password_reset": true})
		},
	}
	reset.Flags().StringVar(&resetEmail, "email", "", "Account email")
	reset.Flags().StringVar(&resetCode, "code", "", "Reset code")
	reset.Flags().StringVar(&resetPassword, "new", "", "New password")

	var oldPassword, newPassword string
	change := &cobra.Command{
		Use:   "change",
		Short: "Change the password of the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			if err := a.Auth.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, map[string]bool{"password_changed": true})
		},
	}
	change.Flags().StringVar(&oldPassword, "old", "", "Current password")
	change.Flags().StringVar(&newPassword, "new", "", "New password")

	cmd.AddCommand(forgot, reset, change)
	return cmd
}

func newWhoamiCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.load(cmd, false)
			if err != nil {
				return err
			}
			user, err := a.Auth.Whoami(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return writeOut(cmd, s, user)
		},
	}
}
