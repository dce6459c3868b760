// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Farmo", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Phone checks the phone number format rule used for account
identifiers.
*/
func TestValidator_Phone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		isValid bool
	}{
		{"vn_mobile", "+84901234567", true},
		{"local_format", "0901234567", true},
		{"with_separators", "090 123-4567", true},
		{"too_short", "09012", false},
		{"letters", "zero-nine-zero", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Phone("phone", tt.phone)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Digits checks the fixed-length digit rule used for passcodes.
*/
func TestValidator_Digits(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		length  int
		isValid bool
	}{
		{"exact_six", "012345", 6, true},
		{"too_short", "12345", 6, false},
		{"too_long", "1234567", 6, false},
		{"non_digit", "12a456", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Digits("code", tt.value, tt.length)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_DigitsBetween checks the bounded digit rule used for wallet PINs.
*/
func TestValidator_DigitsBetween(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"four_digits", "1234", true},
		{"six_digits", "123456", true},
		{"three_digits", "123", false},
		{"seven_digits", "1234567", false},
		{"letters", "12ab", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.DigitsBetween("pin", tt.value, 4, 6)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("full_name", "Nguyen Van A").
		MinLen("full_name", "Nguyen Van A", 3).
		MaxLen("full_name", "Nguyen Van A", 64).
		Phone("phone", "+84901234567").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("full_name", "").       // Fails
		Phone("phone", "not-a-number"). // Fails
		Digits("code", "12x", 6).       // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 3 errors
	assert.Len(t, ae.Details, 3)
}

/*
TestValidator_OneOf checks membership validation for enumerated fields.
*/
func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("role", "farmer", "farmer", "consumer")
	assert.False(t, v.HasErrors())

	v2 := &validate.Validator{}
	v2.OneOf("role", "admin", "farmer", "consumer")
	assert.True(t, v2.HasErrors())
}
