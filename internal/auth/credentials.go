package auth

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgEmailRequired    = "Email is required"
	MsgInvalidEmail     = "Invalid email address"
	MsgPasswordRequired = "Password is required"
)

var validate = newValidator()

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + f[field]
	}
	return strings.Join(parts, "; ")
}

// Validate checks the shape of the credentials locally. It returns FieldErrors
// when a field is rejected and nil otherwise.
func (c Credentials) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch {
	case fe.Field() == "email" && fe.Tag() == "required":
		return MsgEmailRequired
	case fe.Field() == "email":
		return MsgInvalidEmail
	case fe.Field() == "password":
		return MsgPasswordRequired
	default:
		return fe.Error()
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
