package validate

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/medagenda/clinic-backend/internal/rut"
)

var (
	emailPattern = regexp.MustCompile(`^(?:[^\s@".]+(?:\.[^\s@".]+)*|".+")@(?:\[(?:\d{1,3}\.){3}\d{1,3}\]|(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,})$`)
	datePattern  = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	timePattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

var weekDays = map[string]bool{
	"mo": true, "tu": true, "we": true, "th": true,
	"fr": true, "sa": true, "su": true,
}

const (
	phoneMin = 100_000_000
	phoneMax = 999_999_999

	passwordMinLen = 8
)

// asString returns the value as a string if it is one.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asInt accepts the integer encodings a decoded JSON body can carry.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func badValue(key, expected string) *Fail {
	return Failf(http.StatusBadRequest, "field %q must be %s", key, expected)
}

// Email matches a pragmatic RFC-5322 subset: dotted atoms or a quoted local
// part, and a dotted domain with a 2+ letter TLD or an IPv4 literal.
func Email() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || !emailPattern.MatchString(s) {
			return badValue(key, "a valid email address")
		}
		return nil
	}
}

// Phone accepts a 9-digit Chilean mobile number as an integer.
func Phone() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		n, ok := asInt(value)
		if !ok || n < phoneMin || n > phoneMax {
			return badValue(key, "a 9-digit phone number")
		}
		return nil
	}
}

// Date accepts YYYY-MM-DD with month 01-12 and day 01-31.
func Date() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || !datePattern.MatchString(s) {
			return badValue(key, "a date formatted YYYY-MM-DD")
		}
		return nil
	}
}

// TimeOfDay accepts HH:MM on a 24-hour clock.
func TimeOfDay() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || !timePattern.MatchString(s) {
			return badValue(key, "a time formatted HH:MM")
		}
		return nil
	}
}

// Rhesus accepts the literal "+" or "-".
func Rhesus() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || (s != "+" && s != "-") {
			return badValue(key, `"+" or "-"`)
		}
		return nil
	}
}

// DayOfWeek accepts the two-letter day codes mo through su.
func DayOfWeek() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || !weekDays[s] {
			return badValue(key, "one of mo, tu, we, th, fr, sa, su")
		}
		return nil
	}
}

// Password accepts any string of at least 8 characters.
func Password() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || len(s) < passwordMinLen {
			return badValue(key, "a string of at least 8 characters")
		}
		return nil
	}
}

// Rut accepts a well-formed RUT with a correct check digit.
func Rut() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || !rut.Valid(s) {
			return badValue(key, "a valid rut")
		}
		return nil
	}
}

// NonEmptyString accepts any string with visible content.
func NonEmptyString() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		s, ok := asString(value)
		if !ok || strings.TrimSpace(s) == "" {
			return badValue(key, "a non-empty string")
		}
		return nil
	}
}

// Bool accepts a JSON boolean.
func Bool() CheckFunc {
	return func(_ context.Context, key string, value any) *Fail {
		if _, ok := value.(bool); !ok {
			return badValue(key, "a boolean")
		}
		return nil
	}
}

// ExistsFunc answers whether the referenced row exists.
type ExistsFunc func(ctx context.Context, id int) (bool, error)

// ForeignKey accepts a positive integer that references an existing row.
// A well-formed id pointing at nothing fails with 404 rather than 400.
func ForeignKey(entity string, exists ExistsFunc) CheckFunc {
	return func(ctx context.Context, key string, value any) *Fail {
		n, ok := asInt(value)
		if !ok || n < 1 {
			return badValue(key, "a positive integer")
		}
		found, err := exists(ctx, n)
		if err != nil {
			return Failf(http.StatusInternalServerError, "could not verify %s %d", entity, n)
		}
		if !found {
			return Failf(http.StatusNotFound, "%s %d does not exist", entity, n)
		}
		return nil
	}
}
