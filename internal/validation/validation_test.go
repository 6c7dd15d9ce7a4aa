package validation

import (
	"testing"

	"taskmanager-backend/internal/apperr"
)

type createReq struct {
	Title    string  `json:"title" validate:"required,max=255"`
	Priority string  `json:"priority" validate:"required,oneof=low medium high"`
	DueDate  string  `json:"due_date" validate:"required,date"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Password *string `json:"password" validate:"omitnil,min=8"`
}

func TestStructReportsEveryViolation(t *testing.T) {
	bad := "nope"
	short := "123"
	errs := Struct(createReq{Priority: "urgent", DueDate: "tomorrow", Email: &bad, Password: &short})

	for _, f := range []string{"title", "priority", "due_date", "email", "password"} {
		if !errs.Has(f) {
			t.Errorf("expected violation on %s, got %v", f, errs)
		}
	}
	if !apperr.Is(errs.Err(), apperr.KindValidation) {
		t.Fatalf("Err() should be a validation error")
	}
}

func TestStructSkipsAbsentOptionalFields(t *testing.T) {
	errs := Struct(createReq{Title: "t", Priority: "low", DueDate: "2026-05-01"})
	if errs.Err() != nil {
		t.Fatalf("unexpected violations: %v", errs)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2026-05-01", "2026-05-01T10:00:00Z", "2026-05-01 10:00:00"} {
		if _, err := ParseDate(s); err != nil {
			t.Errorf("%s: %v", s, err)
		}
	}
	if _, err := ParseDate("05/01/2026"); err == nil {
		t.Error("US style dates are not accepted")
	}
}

func TestErrorsInt(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		invalid bool
	}{
		{"", 7, false},
		{"  ", 7, false},
		{"12", 12, false},
		{"-3", -3, false},
		{"abc", 7, true},
		{"1.5", 7, true},
		{"9x", 7, true},
	}
	for _, tc := range cases {
		errs := Errors{}
		if got := errs.Int("count", tc.raw, 7); got != tc.want {
			t.Errorf("Int(%q) = %d, want %d", tc.raw, got, tc.want)
		}
		if errs.Has("count") != tc.invalid {
			t.Errorf("Int(%q) errors = %v", tc.raw, errs)
		}
	}
}
