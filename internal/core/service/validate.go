package service

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	displayDateLayout = "02/01/2006"
	isoDateLayout     = "2006-01-02"

	minLoginPassword    = 6
	minRegisterPassword = 8
	minPhoneDigits      = 10
	maxMaskedPhoneLen   = 15
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegistrationForm is the sign-up form as typed: phone may be masked and
// birthdate is dd/mm/yyyy.
type RegistrationForm struct {
	FirstName       string
	LastName        string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Birthdate       string
	AcceptTerms     bool
}

func validateLogin(email, password string) error {
	ve := domain.NewValidationError()

	switch {
	case email == "":
		ve.Add("email", "Email is required")
	case !emailPattern.MatchString(email):
		ve.Add("email", "Invalid email")
	}

	switch {
	case password == "":
		ve.Add("password", "Password is required")
	case len(password) < minLoginPassword:
		ve.Add("password", "Minimum 6 characters")
	}

	return ve.Err()
}

func validateRegistration(f RegistrationForm, now time.Time) error {
	ve := domain.NewValidationError()

	minLen := func(field, value string, n int, required, short string) {
		switch {
		case strings.TrimSpace(value) == "":
			ve.Add(field, required)
		case utf8.RuneCountInString(value) < n:
			ve.Add(field, short)
		}
	}
	minLen("first_name", f.FirstName, 2, "First name required", "Minimum of 2 letters!")
	minLen("last_name", f.LastName, 2, "Last name required", "Minimum of 2 letters!")
	minLen("username", f.Username, 3, "Username required", "Minimum of 3 characters")

	if !emailPattern.MatchString(f.Email) {
		ve.Add("email", "E-mail invalid")
	}

	if msg := passwordProblem(f.Password); msg != "" {
		ve.Add("password", msg)
	}
	if f.ConfirmPassword != f.Password {
		ve.Add("confirm_password", "Passwords do not match")
	}

	if d := DigitsOnly(f.Phone); d != "" && len(d) < minPhoneDigits {
		ve.Add("phone", "Incomplete phone number")
	}

	if msg := birthdateProblem(f.Birthdate, now); msg != "" {
		ve.Add("birthdate", msg)
	}

	if !f.AcceptTerms {
		ve.Add("terms", "You must accept the terms")
	}

	return ve.Err()
}

func passwordProblem(p string) string {
	switch {
	case len(p) < minRegisterPassword:
		return "Minimum of 8 characters!"
	case !strings.ContainsFunc(p, unicode.IsUpper):
		return "It needs a capital letter!"
	case !strings.ContainsFunc(p, unicode.IsDigit):
		return "Password need a number."
	}
	return ""
}

func birthdateProblem(s string, now time.Time) string {
	if s == "" {
		return ""
	}
	if len(s) < len(displayDateLayout) {
		return "Invalid date format"
	}
	d, err := time.ParseInLocation(displayDateLayout, s, now.Location())
	if err != nil || d.After(now) {
		return "Invalid date"
	}
	return ""
}

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// MaskPhone formats a Brazilian phone number as (xx) xxxxx-xxxx. Partial
// input is masked as far as it goes.
func MaskPhone(s string) string {
	d := DigitsOnly(s)
	if len(d) <= 2 {
		return d
	}
	area, rest := d[:2], d[2:]
	if len(rest) >= 5 {
		rest = rest[:len(rest)-4] + "-" + rest[len(rest)-4:]
	}
	masked := "(" + area + ") " + rest
	if len(masked) > maxMaskedPhoneLen {
		masked = masked[:maxMaskedPhoneLen]
	}
	return masked
}

// ISOToDisplayDate turns yyyy-mm-dd into dd/mm/yyyy. Anything else is
// returned unchanged.
func ISOToDisplayDate(s string) string {
	d, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return s
	}
	return d.Format(displayDateLayout)
}

// DisplayToISODate is the inverse of ISOToDisplayDate.
func DisplayToISODate(s string) string {
	if len(s) != len(displayDateLayout) || !strings.Contains(s, "/") {
		return s
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

func toDisplayUser(u domain.User) domain.User {
	if u.Profile.Phone != "" {
		u.Profile.Phone = MaskPhone(u.Profile.Phone)
	}
	u.Profile.Birthdate = ISOToDisplayDate(u.Profile.Birthdate)
	return u
}

func toWireUser(u domain.User) domain.User {
	u.Profile.Phone = DigitsOnly(u.Profile.Phone)
	u.Profile.Birthdate = DisplayToISODate(u.Profile.Birthdate)
	return u
}
