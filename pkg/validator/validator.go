package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ErrFutureDate is returned by ValidateNotFuture
var ErrFutureDate = errors.New("date cannot be in the future")

// ValidateStruct validates a struct based on validate tags. Supported rules are
// required, email, min=N, max=N (characters) and oneof=a b c. Optional rules
// (everything but required) are skipped for empty values. Messages use the json
// name of the field when it has one.
func ValidateStruct(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := fieldName(field)
		for _, rule := range strings.Split(tag, ",") {
			if err := validateField(name, v.Field(i), rule); err != nil {
				return err
			}
		}
	}

	return nil
}

func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}

// validateField validates a single field based on a rule
func validateField(fieldName string, value reflect.Value, rule string) error {
	if rule == "required" {
		if isZero(value) {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}

	// Optional pointers are only checked when set
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.String || value.String() == "" {
		return nil
	}
	s := value.String()

	name, arg, _ := strings.Cut(rule, "=")
	switch name {
	case "email":
		if err := ValidateEmail(s); err != nil {
			return fmt.Errorf("%s must be a valid email", fieldName)
		}
	case "min":
		n, _ := strconv.Atoi(arg)
		if utf8.RuneCountInString(s) < n {
			return fmt.Errorf("%s must be at least %d characters", fieldName, n)
		}
	case "max":
		n, _ := strconv.Atoi(arg)
		if utf8.RuneCountInString(s) > n {
			return fmt.Errorf("%s must be at most %d characters", fieldName, n)
		}
	case "oneof":
		allowed := strings.Fields(arg)
		if !slices.Contains(allowed, s) {
			return fmt.Errorf("%s must be one of: %s", fieldName, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// isZero checks if a value is zero/empty
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword validates a password
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// ValidateNotFuture rejects dates after the calendar day of now. Only the date
// part counts, so a record dated today is accepted whatever its time of day.
func ValidateNotFuture(date, now time.Time) error {
	y, m, d := now.Date()
	endOfToday := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if !date.Before(endOfToday) {
		return ErrFutureDate
	}
	return nil
}

// SanitizeString sanitizes a string by removing potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	email = SanitizeString(email)
	email = strings.ToLower(email)
	return email
}
