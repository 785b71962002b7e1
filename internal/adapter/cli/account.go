package cli

import (
	"bufio"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/spf13/cobra"
)

func (c commands) loginCmd() *cobra.Command {
	var (
		email    string
		password string
		remember bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := newView(cmd.OutOrStdout())
			ctx := cmd.Context()

			if email == "" {
				remembered, err := c.deps.Storefront.RememberedEmail(ctx)
				if err != nil {
					v.report(err)
					return nil
				}
				email = remembered
			}
			if password == "" {
				password = readLine(cmd)
			}

			if err := c.deps.Storefront.Login(ctx, email, password, remember); err != nil {
				v.report(err)
				return nil
			}
			v.notice(noticeSuccess, "Logged in as "+strings.TrimSpace(email))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&email, "email", "e", "", "account email, the remembered one when empty")
	fs.StringVarP(&password, "password", "p", "", "password, read from stdin when empty")
	fs.BoolVarP(&remember, "remember", "r", false, "remember the email for the next login")
	return cmd
}

func readLine(cmd *cobra.Command) string {
	sc := bufio.NewScanner(cmd.InOrStdin())
	if sc.Scan() {
		return strings.TrimRight(sc.Text(), "\r")
	}
	return ""
}

func (c commands) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := newView(cmd.OutOrStdout())
			if err := c.deps.Storefront.Logout(cmd.Context()); err != nil {
				v.report(err)
				return nil
			}
			v.notice(noticeSuccess, "Logged out")
			return nil
		},
	}
}

func (c commands) registerCmd() *cobra.Command {
	var f service.RegistrationForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := newView(cmd.OutOrStdout())
			user, err := c.deps.Storefront.Register(cmd.Context(), f)
			if err != nil {
				v.report(err)
				return nil
			}
			v.notice(noticeSuccess, "Welcome, "+user.FullName())
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.FirstName, "first-name", "", "first name")
	fs.StringVar(&f.LastName, "last-name", "", "last name")
	fs.StringVar(&f.Username, "username", "", "username")
	fs.StringVar(&f.Email, "email", "", "email")
	fs.StringVar(&f.Password, "password", "", "password")
	fs.StringVar(&f.ConfirmPassword, "confirm-password", "", "password again")
	fs.StringVar(&f.Phone, "phone", "", "phone, e.g. (11) 98765-4321")
	fs.StringVar(&f.Birthdate, "birthdate", "", "birthdate as dd/mm/yyyy")
	fs.BoolVar(&f.AcceptTerms, "accept-terms", false, "accept the terms of use")
	return cmd
}

func (c commands) profileCmd() *cobra.Command {
	show := func(cmd *cobra.Command, _ []string) error {
		v := newView(cmd.OutOrStdout())
		u, err := c.deps.Storefront.Profile(cmd.Context())
		if err != nil {
			v.report(err)
			return nil
		}
		v.profile(u)
		return nil
	}

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the account profile",
		Args:  cobra.NoArgs,
		RunE:  show,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the account profile",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		c.profileUpdateCmd(),
	)
	return cmd
}

// profileUpdateCmd applies only the flags that were set on top of the
// current profile.
func (c commands) profileUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Args:  cobra.NoArgs,
	}

	fields := map[string]func(*domain.User, string){
		"first-name": func(u *domain.User, s string) { u.FirstName = s },
		"last-name":  func(u *domain.User, s string) { u.LastName = s },
		"email":      func(u *domain.User, s string) { u.Email = s },
		"phone":      func(u *domain.User, s string) { u.Profile.Phone = s },
		"birthdate":  func(u *domain.User, s string) { u.Profile.Birthdate = s },
		"cep":        func(u *domain.User, s string) { u.Profile.CEP = s },
		"street":     func(u *domain.User, s string) { u.Profile.Street = s },
		"number":     func(u *domain.User, s string) { u.Profile.Number = s },
		"city":       func(u *domain.User, s string) { u.Profile.City = s },
		"state":      func(u *domain.User, s string) { u.Profile.State = s },
		"avatar":     func(u *domain.User, s string) { u.Profile.Avatar = s },
	}
	for name := range fields {
		cmd.Flags().String(name, "", strings.ReplaceAll(name, "-", " "))
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		v := newView(cmd.OutOrStdout())
		ctx := cmd.Context()

		u, err := c.deps.Storefront.Profile(ctx)
		if err != nil {
			v.report(err)
			return nil
		}
		for name, set := range fields {
			if !cmd.Flags().Changed(name) {
				continue
			}
			value, _ := cmd.Flags().GetString(name)
			set(&u, value)
		}

		updated, err := c.deps.Storefront.UpdateProfile(ctx, u)
		if err != nil {
			v.report(err)
			return nil
		}
		v.notice(noticeSuccess, "Profile saved")
		v.profile(updated)
		return nil
	}
	return cmd
}
