// Package validate implements per-field predicate validation composed into
// whole-object schemas. Fields are checked in declared order with an early
// exit on the first failure, and only fields present in the input are carried
// into the sanitized result, which makes the same schema usable for PATCH
// bodies. A schema may additionally carry a Global check that runs over the
// whole candidate object after every per-field check passed, so field errors
// always surface before whole-record errors.
package validate

import (
	"context"
	"fmt"
	"net/http"
)

// Fail describes a rejected value: the HTTP status to answer with and a
// human-readable message. Validators return values, they never panic.
type Fail struct {
	Status  int
	Message string
}

func (f *Fail) Error() string { return f.Message }

func Failf(status int, format string, args ...any) *Fail {
	return &Fail{Status: status, Message: fmt.Sprintf(format, args...)}
}

// CheckFunc validates a single field value. Checks that need a lookup (e.g.
// foreign key existence) receive the request context.
type CheckFunc func(ctx context.Context, key string, value any) *Fail

type Field struct {
	Key      string
	Required bool
	Check    CheckFunc
}

// GlobalFunc sees the merged candidate object once all per-field checks pass.
type GlobalFunc func(ctx context.Context, candidate map[string]any) *Fail

type Schema struct {
	Fields []Field
	Global GlobalFunc
}

// Validate checks a create-style body: required fields must be present.
// Returns the sanitized object containing exactly the declared fields that
// were present.
func (s Schema) Validate(ctx context.Context, body map[string]any) (map[string]any, *Fail) {
	sanitized, fail := s.checkFields(ctx, body, false)
	if fail != nil {
		return nil, fail
	}
	if s.Global != nil {
		if fail := s.Global(ctx, sanitized); fail != nil {
			return nil, fail
		}
	}
	return sanitized, nil
}

// ValidatePartial checks an update-style body: every field is optional, and
// the Global check runs over current merged with the incoming changes so
// whole-record rules see the record as it would be after the update.
func (s Schema) ValidatePartial(ctx context.Context, body, current map[string]any) (map[string]any, *Fail) {
	sanitized, fail := s.checkFields(ctx, body, true)
	if fail != nil {
		return nil, fail
	}
	if s.Global != nil {
		merged := make(map[string]any, len(current)+len(sanitized))
		for k, v := range current {
			merged[k] = v
		}
		for k, v := range sanitized {
			merged[k] = v
		}
		if fail := s.Global(ctx, merged); fail != nil {
			return nil, fail
		}
	}
	return sanitized, nil
}

func (s Schema) checkFields(ctx context.Context, body map[string]any, partial bool) (map[string]any, *Fail) {
	sanitized := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		value, present := body[f.Key]
		if !present {
			if f.Required && !partial {
				return nil, Failf(http.StatusBadRequest, "missing required field %q", f.Key)
			}
			continue
		}
		if fail := f.Check(ctx, f.Key, value); fail != nil {
			return nil, fail
		}
		sanitized[f.Key] = value
	}
	return sanitized, nil
}
