package formatter

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/services"
)

// Form fields a translated error can be attached to.
const (
	FieldEmail                = "email"
	FieldConfirmationPassword = "confirmationPassword"
	FieldFirstName            = "firstName"
	FieldLastName             = "lastName"
	FieldForm                 = "form"
)

// UnknownErrorKey is the display key for backend errors missing from the table.
const UnknownErrorKey = "account.errors.unknown_error"

type errorMapping struct {
	field string
	key   string
}

var backendErrors = map[string]errorMapping{
	"Invalid param email":                   {FieldEmail, "account.errors.invalid_param_email"},
	"Customer email already exists":         {FieldEmail, "account.errors.email_exists"},
	"Please enter a valid e-mail address.":  {FieldEmail, "account.errors.please_enter_valid_email"},
	"Invalid confirmationPassword":          {FieldConfirmationPassword, "account.errors.invalid_password"},
	"firstName can have max 50 characters.": {FieldFirstName, "account.errors.first_name_too_long"},
	"lastName can have max 50 characters.":  {FieldLastName, "account.errors.last_name_too_long"},
}

// FormErrors maps form fields to display keys.
//
// Unknown keeps every raw string that fell into the [UnknownErrorKey] bucket.
type FormErrors struct {
	Fields  map[string]string
	Unknown []string
}

// Get returns the display key for field, or "".
func (f FormErrors) Get(field string) string {
	return f.Fields[field]
}

func (f FormErrors) Empty() bool {
	return len(f.Fields) == 0
}

// TranslateErrors maps backend error strings to display keys. Some backend messages
// arrive comma-joined in a single string; those are split first. A later error for the
// same field replaces the earlier one. Unrecognized strings are logged at warn level.
func TranslateErrors(errs []string, logger *log.Logger) FormErrors {
	out := FormErrors{Fields: map[string]string{}}

	for _, combined := range errs {
		for _, part := range strings.Split(combined, ",") {
			msg := strings.TrimSpace(part)

			if m, ok := backendErrors[msg]; ok {
				out.Fields[m.field] = m.key
				continue
			}

			out.Fields[FieldForm] = UnknownErrorKey
			out.Unknown = append(out.Unknown, msg)
			if logger != nil {
				logger.Warn("unknown backend error", "error", msg)
			}
		}
	}
	return out
}

// TranslateError translates err when it carries a backend error list. Any other
// error lands in the unknown bucket with its message.
func TranslateError(err error, logger *log.Logger) FormErrors {
	if err == nil {
		return FormErrors{Fields: map[string]string{}}
	}

	var respErr *services.ResponseError
	if errors.As(err, &respErr) && len(respErr.Errors) > 0 {
		return TranslateErrors(respErr.Errors, logger)
	}
	return TranslateErrors([]string{err.Error()}, logger)
}
