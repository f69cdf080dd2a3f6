package security

import (
	"errors"
	"testing"
)

func TestDefaultPasswordValidator(t *testing.T) {
	v := DefaultPasswordValidator("farmer42", "farmer42@example.com")

	cases := []struct {
		name     string
		password string
		wantCode string
	}{
		{name: "acceptable", password: "Harvest!Moon-2024", wantCode: ""},
		{name: "too short", password: "Ab1!xyz", wantCode: "min_length"},
		{name: "no digit", password: "HarvestMoonFields!", wantCode: "digit"},
		{name: "single case", password: "harvestmoon2024!!", wantCode: "mixed_case"},
		{name: "predictable", password: "Password1234", wantCode: "weak_password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.password)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected password to pass, got %v", err)
				}
				return
			}

			var violation *PolicyViolation
			if !errors.As(err, &violation) {
				t.Fatalf("expected PolicyViolation, got %v", err)
			}
			if violation.Code != tc.wantCode {
				t.Fatalf("expected violation %q, got %q", tc.wantCode, violation.Code)
			}
		})
	}
}

func TestMaxLengthRule(t *testing.T) {
	rule := MaxLength(12)
	if err := rule("short enough"); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if err := rule("this one is definitely too long"); err == nil {
		t.Fatal("expected max_length violation")
	}
}

func TestNilValidatorRejects(t *testing.T) {
	var v *PasswordValidator
	if err := v.Validate("anything"); err == nil {
		t.Fatal("expected error from unconfigured validator")
	}
}
