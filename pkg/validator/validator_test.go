package validator

import (
	"strings"
	"testing"
)

type sample struct {
	TeacherID   string  `validate:"required"`
	CreditHours float64 `validate:"required,credit_hours"`
	StartTime   string  `validate:"required,clock"`
}

func TestValidateStruct_CustomTags(t *testing.T) {
	ok := sample{TeacherID: "t-1", CreditHours: 3.0, StartTime: "08:00"}
	if err := ValidateStruct(&ok); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	bad := sample{CreditHours: 2.0, StartTime: "8am"}
	err := ValidateStruct(&bad)
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}

	formatted := FormatValidationError(err)
	if len(formatted) != 3 {
		t.Fatalf("Expected 3 field errors, got %d: %+v", len(formatted), formatted)
	}

	byField := map[string]ValidationError{}
	for _, f := range formatted {
		byField[f.Field] = f
	}
	if byField["teacher_id"].Tag != "required" {
		t.Errorf("Expected teacher_id required error, got %+v", byField["teacher_id"])
	}
	if byField["credit_hours"].Tag != "credit_hours" {
		t.Errorf("Expected credit_hours error, got %+v", byField["credit_hours"])
	}
	if byField["start_time"].Message != "start_time must be a time in HH:MM format" {
		t.Errorf("Unexpected start_time message: %s", byField["start_time"].Message)
	}

	summary := Summary(err)
	if !strings.Contains(summary, "teacher_id is required") {
		t.Errorf("Expected summary to mention teacher_id, got %q", summary)
	}
}

func TestToSnake(t *testing.T) {
	cases := map[string]string{
		"TeacherID":  "teacher_id",
		"DayID":      "day_id",
		"CourseType": "course_type",
		"Section":    "section",
	}
	for in, want := range cases {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
