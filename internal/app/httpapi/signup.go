package httpapi

import (
	"regexp"
	"strconv"

	"github.com/openfieldhq/webcore/internal/validation"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// MinPasswordLength is the floor enforced on new accounts.
const MinPasswordLength = 8

// SignupForm is the validated model behind POST /signup.
type SignupForm struct {
	Name     string
	Email    string
	Password string
}

func (f *SignupForm) ModelName() string { return "Signup" }

func (f *SignupForm) HumanAttributeName(attribute string) string {
	return validation.Humanize(attribute)
}

func (f *SignupForm) ValidationValue(attribute string) interface{} {
	switch attribute {
	case "name":
		return f.Name
	case "email":
		return f.Email
	case "password":
		// Never expose the raw password through interpolation.
		return ""
	default:
		return nil
	}
}

func (f *SignupForm) LookupScopes() []string {
	return []string{"signup", "user"}
}

// Validate runs the form's checks and returns the populated registry.
func (f *SignupForm) Validate(resolver *validation.MessageResolver, locale string) *validation.Errors {
	errs := validation.NewErrors(f,
		validation.WithResolver(resolver),
		validation.WithLocale(locale),
	)

	if f.Name == "" {
		f.mustAdd(errs, "name", ":blank")
	}
	if f.Email == "" {
		f.mustAdd(errs, "email", ":blank")
	} else if !emailPattern.MatchString(f.Email) {
		f.mustAdd(errs, "email", ":invalid")
	}
	if len(f.Password) < MinPasswordLength {
		f.mustAdd(errs, "password", ":too_short",
			validation.WithVars(map[string]string{"count": strconv.Itoa(MinPasswordLength)}))
	}

	return errs
}

// mustAdd falls back to the raw kind when resolution fails, so a broken
// catalog degrades to terse messages instead of dropping the error.
func (f *SignupForm) mustAdd(errs *validation.Errors, attribute, message string, opts ...validation.AddOption) {
	if err := errs.Add(attribute, message, opts...); err != nil {
		errs.AddFunc(attribute, func() string { return message[1:] })
	}
}
