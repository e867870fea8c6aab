/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Animal", "123")

	expected := `Animal with key "123" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("Animal", "ABC")

	expected := `Animal with key "ABC" already exists`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "mice_eaten",
			message:  "not an integer",
			expected: `validation failed for field "mice_eaten": not an integer`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing required fields",
			expected: "validation failed: missing required fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)
			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}
			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestTypedModelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
		fatal    bool
	}{
		{
			name:     "duplicate registration",
			err:      NewDuplicateRegistrationError("testapp.feline", "Feline", "Cat"),
			sentinel: ErrDuplicateRegistration,
			message:  `can't register Feline type "testapp.feline" (already registered to Cat)`,
			fatal:    true,
		},
		{
			name:     "field conflict",
			err:      NewFieldConflictError("name", "Manager", "Developer"),
			sentinel: ErrFieldConflict,
			message:  `field "name" declared by Manager conflicts with the definition from Developer`,
			fatal:    true,
		},
		{
			name:     "nullability",
			err:      NewNullabilityConstraintError("num_legs", "Bug"),
			sentinel: ErrNullabilityConstraint,
			message:  `field "num_legs" on Bug: subclass field must be nullable, have a default or be multi-valued`,
			fatal:    true,
		},
		{
			name:     "invalid discriminator",
			err:      NewInvalidDiscriminatorError("Animal", "macaroni.buffaloes"),
			sentinel: ErrInvalidDiscriminator,
			message:  `invalid Animal identifier: "macaroni.buffaloes"`,
		},
		{
			name:     "untyped save",
			err:      NewUntypedSaveError("Animal"),
			sentinel: ErrUntypedSave,
			message:  "untyped Animal cannot be saved",
		},
		{
			name:     "too many values",
			err:      NewTooManyFieldValuesError("Animal", 9, 4),
			sentinel: ErrTooManyFieldValues,
			message:  "Animal: got 9 values for 4 fields",
		},
		{
			name:     "no registry",
			err:      NewNoRegistryFoundError("Orphan"),
			sentinel: ErrNoRegistryFound,
			message:  "Orphan: no suitable root found to recast",
			fatal:    true,
		},
		{
			name:     "missing field",
			err:      NewFieldDoesNotExistError("Parrot", "mice_eaten"),
			sentinel: ErrFieldDoesNotExist,
			message:  `Parrot has no field named "mice_eaten"`,
		},
		{
			name:     "unknown discriminator",
			err:      NewUnknownDiscriminatorError("x.y"),
			sentinel: ErrUnknownDiscriminator,
			message:  `type registry: no type registered for "x.y"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.message {
				t.Errorf("Expected error message %q, got %q", tt.message, tt.err.Error())
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%T should match its sentinel", tt.err)
			}
			if IsFatal(tt.err) != tt.fatal {
				t.Errorf("IsFatal(%T) = %v, want %v", tt.err, !tt.fatal, tt.fatal)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := NewInvalidDiscriminatorError("Animal", "testapp.vegetable")
	wrappedErr := fmt.Errorf("recast failed: %w", baseErr)

	if !IsInvalidDiscriminator(wrappedErr) {
		t.Error("Wrapped InvalidDiscriminatorError should still be detected")
	}

	var target *InvalidDiscriminatorError
	if !errors.As(wrappedErr, &target) {
		t.Fatal("Should be able to extract InvalidDiscriminatorError from wrapped error")
	}
	if target.Value != "testapp.vegetable" {
		t.Errorf("Expected value 'testapp.vegetable', got %q", target.Value)
	}

	if !IsUntypedSave(fmt.Errorf("save: %w", NewUntypedSaveError("Animal"))) {
		t.Error("Wrapped UntypedSaveError should still be detected")
	}
	if !IsFieldDoesNotExist(fmt.Errorf("filter: %w", NewFieldDoesNotExistError("Feline", "known_words"))) {
		t.Error("Wrapped FieldDoesNotExistError should still be detected")
	}
	if IsFatal(wrappedErr) {
		t.Error("InvalidDiscriminatorError must not be fatal")
	}
}
