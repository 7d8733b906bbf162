package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pagopa/opex-dashboard/internal/merge"
	"github.com/pagopa/opex-dashboard/internal/models"
)

var (
	timespanPattern       = regexp.MustCompile(`^[1-9][0-9]*[smhd]$`)
	statusCategoryPattern = regexp.MustCompile(`^[1-5]XX$`)
)

// configValidate is the validator instance for Config.
// Initialized in init() with custom validators.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()

	// Report fields with the names users write in the YAML file
	configValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	_ = configValidate.RegisterValidation("timespan", validateTimespan)
	_ = configValidate.RegisterValidation("statuscategory", validateStatusCategory)
	_ = configValidate.RegisterValidation("endpointkey", validateEndpointKey)
}

// validateTimespan accepts Kusto bin sizes such as 5m, 30s, 1h or 1d
func validateTimespan(fl validator.FieldLevel) bool {
	return timespanPattern.MatchString(fl.Field().String())
}

// validateStatusCategory accepts 1XX..5XX
func validateStatusCategory(fl validator.FieldLevel) bool {
	return statusCategoryPattern.MatchString(fl.Field().String())
}

// validateEndpointKey accepts "/path" and "METHOD /path" with a known verb
func validateEndpointKey(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if _, p, found := strings.Cut(raw, " "); found {
		raw = strings.TrimSpace(p)
	}
	if !strings.HasPrefix(raw, "/") || strings.ContainsAny(raw, " \t") {
		return false
	}
	key := merge.ParseEndpointKey(fl.Field().String())
	return key.Method == "" || models.IsHTTPVerb(strings.ToLower(key.Method))
}

// Validate checks the configuration schema. Every invalid field is reported
// as a ConfigError; the errors are joined so all of them surface at once.
func (c *Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewConfigError("", "invalid configuration", err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, models.NewConfigError(fieldPath(fe), describe(fe), nil))
	}
	return errors.Join(errs...)
}

// fieldPath drops the root struct name, e.g. "Config.queries.x" -> "queries.x"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when no environments are configured"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "timespan":
		return fmt.Sprintf("invalid timespan %q, expected e.g. 5m, 1h", fmt.Sprint(fe.Value()))
	case "statuscategory":
		return fmt.Sprintf("invalid status code category %q, expected 1XX..5XX", fmt.Sprint(fe.Value()))
	case "endpointkey":
		return fmt.Sprintf("invalid endpoint key %q, expected \"/path\" or \"METHOD /path\"", fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
