package validate

import (
	"context"
	"net/http"
	"testing"
)

func TestSchemaRequiredAndOrder(t *testing.T) {
	ctx := context.Background()
	schema := Schema{
		Fields: []Field{
			{Key: "email", Required: true, Check: Email()},
			{Key: "phone", Required: true, Check: Phone()},
			{Key: "rhesus", Check: Rhesus()},
		},
	}

	t.Run("missing required field", func(t *testing.T) {
		_, fail := schema.Validate(ctx, map[string]any{"phone": float64(912345678)})
		if fail == nil || fail.Status != http.StatusBadRequest {
			t.Fatalf("fail = %+v, want 400", fail)
		}
	})

	t.Run("short circuits on first declared failure", func(t *testing.T) {
		// Both fields are invalid; the email error must win because it is
		// declared first.
		_, fail := schema.Validate(ctx, map[string]any{
			"email": "not-an-email",
			"phone": float64(1),
		})
		if fail == nil {
			t.Fatal("expected failure")
		}
		if got := fail.Message; got != `field "email" must be a valid email address` {
			t.Errorf("message = %q, want the email failure first", got)
		}
	})

	t.Run("sanitized keeps only declared present fields", func(t *testing.T) {
		out, fail := schema.Validate(ctx, map[string]any{
			"email":      "ana@example.cl",
			"phone":      float64(912345678),
			"unexpected": "dropped",
		})
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail)
		}
		if _, ok := out["unexpected"]; ok {
			t.Error("undeclared field survived sanitization")
		}
		if _, ok := out["rhesus"]; ok {
			t.Error("absent optional field appeared in sanitized output")
		}
		if len(out) != 2 {
			t.Errorf("sanitized = %v, want exactly email and phone", out)
		}
	})
}

func TestSchemaPartial(t *testing.T) {
	ctx := context.Background()
	schema := Schema{
		Fields: []Field{
			{Key: "email", Required: true, Check: Email()},
			{Key: "phone", Required: true, Check: Phone()},
		},
	}

	// Required fields may be absent in a partial update.
	out, fail := schema.ValidatePartial(ctx, map[string]any{"phone": float64(998765432)}, nil)
	if fail != nil {
		t.Fatalf("unexpected failure: %v", fail)
	}
	if len(out) != 1 {
		t.Errorf("sanitized = %v", out)
	}

	// Present fields are still checked.
	_, fail = schema.ValidatePartial(ctx, map[string]any{"email": 42}, nil)
	if fail == nil || fail.Status != http.StatusBadRequest {
		t.Fatalf("fail = %+v, want 400", fail)
	}
}

func TestSchemaGlobalSeesMergedRecord(t *testing.T) {
	ctx := context.Background()
	var seen map[string]any
	schema := Schema{
		Fields: []Field{
			{Key: "start", Check: TimeOfDay()},
			{Key: "end", Check: TimeOfDay()},
		},
		Global: func(_ context.Context, candidate map[string]any) *Fail {
			seen = candidate
			if candidate["start"].(string) >= candidate["end"].(string) {
				return Failf(http.StatusBadRequest, "start must come before end")
			}
			return nil
		},
	}

	current := map[string]any{"start": "08:00", "end": "09:00"}

	// Patching only the end: global must see the stored start.
	_, fail := schema.ValidatePartial(ctx, map[string]any{"end": "08:30"}, current)
	if fail != nil {
		t.Fatalf("unexpected failure: %v", fail)
	}
	if seen["start"] != "08:00" || seen["end"] != "08:30" {
		t.Errorf("global saw %v, want merged record", seen)
	}

	// A patch that breaks the whole-record rule fails.
	_, fail = schema.ValidatePartial(ctx, map[string]any{"end": "07:00"}, current)
	if fail == nil {
		t.Fatal("expected global failure")
	}
}

func TestGlobalRunsAfterFieldChecks(t *testing.T) {
	ctx := context.Background()
	globalRan := false
	schema := Schema{
		Fields: []Field{{Key: "date", Required: true, Check: Date()}},
		Global: func(context.Context, map[string]any) *Fail {
			globalRan = true
			return nil
		},
	}

	_, fail := schema.Validate(ctx, map[string]any{"date": "not-a-date"})
	if fail == nil {
		t.Fatal("expected field failure")
	}
	if globalRan {
		t.Error("global check ran despite a field failure")
	}
}
