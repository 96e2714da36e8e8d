package config

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"
)

// Password policy violations.
var (
	ErrPasswordTooShort  = errors.New("password too short")
	ErrPasswordNoDigit   = errors.New("password needs a digit")
	ErrPasswordMixedCase = errors.New("password needs upper and lower case letters")
	ErrPasswordPattern   = errors.New("password does not match the required pattern")
)

// PasswordPolicy constrains passwords chosen through the panel. The zero
// value accepts any non-empty password.
type PasswordPolicy struct {
	MinLength int
	NeedDigit bool
	MixedCase bool
	Pattern   string

	re *regexp.Regexp
}

func (p *PasswordPolicy) compile() error {
	if p.Pattern == "" {
		p.re = nil
		return nil
	}
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return fmt.Errorf("invalid PasswordRegExp %q: %w", p.Pattern, err)
	}
	p.re = re
	return nil
}

// Check returns the first rule password breaks, or nil.
func (p *PasswordPolicy) Check(password string) error {
	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		return ErrPasswordTooShort
	}
	var digit, upper, lower bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	if p.NeedDigit && !digit {
		return ErrPasswordNoDigit
	}
	if p.MixedCase && !(upper && lower) {
		return ErrPasswordMixedCase
	}
	if p.Pattern != "" {
		re := p.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(p.Pattern); err != nil {
				return fmt.Errorf("invalid PasswordRegExp %q: %w", p.Pattern, err)
			}
		}
		if !re.MatchString(password) {
			return ErrPasswordPattern
		}
	}
	return nil
}
