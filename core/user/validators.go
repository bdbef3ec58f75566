package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/smkremaja/pkl/core"
)

const (
	roleTag  = "role"
	roleText = "must be admin, teacher or student"

	pwdMinLen = 8
	pwdMaxSim = .7
)

// pwdRule is one check of the password policy. Rules run in order and the first failure is reported.
type pwdRule struct {
	tag  string
	text string
	ok   func(pwd string, attrs []string) bool
}

var pwdPolicy = []pwdRule{
	{
		tag:  "pwdminlen",
		text: fmt.Sprintf("password must contain at least %d characters", pwdMinLen),
		ok:   func(pwd string, _ []string) bool { return len([]rune(pwd)) >= pwdMinLen },
	},
	{
		tag:  "pwdnospace",
		text: "password must not contain whitespace",
		ok:   func(pwd string, _ []string) bool { return strings.IndexFunc(pwd, unicode.IsSpace) < 0 },
	},
	{
		tag:  "pwdnotallnum",
		text: "password cannot be entirely numeric",
		ok: func(pwd string, _ []string) bool {
			return strings.IndexFunc(pwd, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0
		},
	},
	{
		tag:  "pwdtoosim",
		text: "password is too similar to the name or username",
		ok: func(pwd string, attrs []string) bool {
			for _, attr := range attrs {
				if similarity(pwd, attr) >= pwdMaxSim {
					return false
				}
			}
			return true
		},
	},
}

// InitValidators registers the role tag, the password policy and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return IsRole(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(passwordStructValidation, NewUser{}, UpdateUser{}, ChangePassword{})
	for _, rule := range pwdPolicy {
		core.RegisterCustomTranslation(validate, translator, rule.tag, rule.text)
	}
}

// IsRole reports whether role is one of AllRoles.
func IsRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func passwordStructValidation(sl validator.StructLevel) {
	var pwd string
	var attrs []string
	switch v := sl.Current().Interface().(type) {
	case NewUser:
		pwd, attrs = v.Password, []string{v.Name, v.Username}
	case UpdateUser:
		if v.Password == "" {
			return
		}
		pwd, attrs = v.Password, []string{v.Name, v.Username}
	case ChangePassword:
		pwd, attrs = v.Password, []string{v.name, v.username}
	default:
		return
	}
	if pwd == "" {
		return // left to `required`
	}
	if tag := checkPassword(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// checkPassword returns the tag of the first policy rule pwd breaks, or "".
func checkPassword(pwd string, attrs ...string) string {
	for _, rule := range pwdPolicy {
		if !rule.ok(pwd, attrs) {
			return rule.tag
		}
	}
	return ""
}

// similarity is the case-insensitive difflib quick ratio between the characters of a and b.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).QuickRatio()
}
