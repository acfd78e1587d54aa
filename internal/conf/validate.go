// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fcompdata/fcompdata/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	switch settings.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf("invalid log level %q", settings.Log.Level))
	}

	switch settings.Log.Format {
	case "text", "json":
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf("invalid log format %q", settings.Log.Format))
	}

	if strings.TrimSpace(settings.Cache.Dir) == "" {
		ve.Errors = append(ve.Errors, "cache directory must not be empty")
	}

	if err := validateM4Settings(&settings.M4); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Category(errors.CategoryValidation).
			Component("configuration").
			Build()
	}

	return nil
}

func validateM4Settings(s *M4Settings) error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("m4 base_url %q must be an absolute http(s) URL", s.BaseURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("m4 timeout must be positive, got %s", s.Timeout)
	}
	if s.Retries < 0 {
		return fmt.Errorf("m4 retries must not be negative, got %d", s.Retries)
	}
	return nil
}
