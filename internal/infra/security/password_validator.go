package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// PolicyViolation describes a single password policy failure.
type PolicyViolation struct {
	Code    string
	Message string
}

func (e *PolicyViolation) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule checks one aspect of a candidate password.
type PasswordRule func(password string) error

// PasswordValidator runs a password through an ordered rule set and reports
// the first violation.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator from the given rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// DefaultPasswordValidator is the policy applied to tracker account passwords.
func DefaultPasswordValidator(userInputs ...string) *PasswordValidator {
	return NewPasswordValidator(
		MinLength(10),
		MaxLength(128),
		RequireDigit(),
		RequireMixedCase(),
		MinStrength(2, userInputs...),
	)
}

// Validate returns the first rule violation, or nil when the password passes.
func (v *PasswordValidator) Validate(password string) error {
	if v == nil {
		return fmt.Errorf("password validator not configured")
	}
	for _, rule := range v.rules {
		if err := rule(password); err != nil {
			return err
		}
	}
	return nil
}

// MinLength requires at least min characters.
func MinLength(min int) PasswordRule {
	return func(password string) error {
		if len([]rune(password)) < min {
			return &PolicyViolation{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	}
}

// MaxLength bounds the password size so hashing cost stays predictable.
func MaxLength(max int) PasswordRule {
	return func(password string) error {
		if len([]rune(password)) > max {
			return &PolicyViolation{
				Code:    "max_length",
				Message: fmt.Sprintf("password must be at most %d characters long", max),
			}
		}
		return nil
	}
}

// RequireDigit requires at least one decimal digit.
func RequireDigit() PasswordRule {
	return func(password string) error {
		for _, r := range password {
			if unicode.IsDigit(r) {
				return nil
			}
		}
		return &PolicyViolation{
			Code:    "digit",
			Message: "password must include at least one digit",
		}
	}
}

// RequireMixedCase requires both an upper-case and a lower-case letter.
func RequireMixedCase() PasswordRule {
	return func(password string) error {
		var hasUpper, hasLower bool
		for _, r := range password {
			switch {
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsLower(r):
				hasLower = true
			}
		}
		if hasUpper && hasLower {
			return nil
		}
		return &PolicyViolation{
			Code:    "mixed_case",
			Message: "password must include both upper and lower case letters",
		}
	}
}

// MinStrength rejects passwords scoring below minScore on the zxcvbn scale.
// userInputs (usernames, emails) are penalized when they appear in the
// password.
func MinStrength(minScore int, userInputs ...string) PasswordRule {
	return func(password string) error {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}

		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score >= minScore {
			return nil
		}

		return &PolicyViolation{
			Code:    "weak_password",
			Message: "password is too weak; choose a less predictable value",
		}
	}
}
