package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"blog-server/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 150
	minPasswordLength = 8
	maxPasswordLength = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_@.+-]+$`)

// PasswordValidator checks password strength. It returns one message per
// failed rule, or nil when the password is acceptable.
type PasswordValidator interface {
	Validate(password, username string) []string
}

type defaultPasswordValidator struct{}

// NewDefaultPasswordValidator returns the built-in rules: 8..100 characters,
// at least one letter and one digit, not entirely numeric, and not containing
// the username.
func NewDefaultPasswordValidator() PasswordValidator {
	return defaultPasswordValidator{}
}

func (defaultPasswordValidator) Validate(password, username string) []string {
	var problems []string
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if n > maxPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too long. It must contain at most %d characters.", maxPasswordLength))
	}

	hasLetter, hasDigit, allDigits := false, false, n > 0
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
			allDigits = false
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			allDigits = false
		}
	}
	if allDigits {
		problems = append(problems, "This password is entirely numeric.")
	} else if !hasLetter || !hasDigit {
		problems = append(problems, "This password must contain at least one letter and one digit.")
	}

	if u := strings.ToLower(strings.TrimSpace(username)); u != "" && strings.Contains(strings.ToLower(password), u) {
		problems = append(problems, "The password is too similar to the username.")
	}
	return problems
}

// checkPasswords runs the mismatch check first, then strength rules.
func checkPasswords(v PasswordValidator, password, confirmation, username string) error {
	if password != confirmation {
		return models.ErrPasswordMismatch
	}
	if problems := v.Validate(password, username); len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrWeakPassword, strings.Join(problems, " "))
	}
	return nil
}

// normalizeIdentity trims the username, lowercases the email and records
// format problems in fe.
func normalizeIdentity(username, email string, fe models.FieldErrors) (string, string) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		fe.Add("username", "This field is required.")
	case n < minUsernameLength || n > maxUsernameLength:
		fe.Add("username", fmt.Sprintf("Username must be between %d and %d characters.", minUsernameLength, maxUsernameLength))
	case !usernamePattern.MatchString(username):
		fe.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	if email == "" {
		fe.Add("email", "This field is required.")
	} else if !isValidEmail(email) {
		fe.Add("email", "Enter a valid email address.")
	}
	return username, email
}

// isValidEmail accepts a bare address only, no display name.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password)) // для sha256 Write всегда возвращает nil
	return h.Sum(nil)
}

func hashPassword(password, pepper string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(applyPepper(password, pepper), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), applyPepper(password, pepper)) == nil
}
