/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when attempting to create a record that already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateRegistration is returned when two classes compute the same discriminator
	ErrDuplicateRegistration = errors.New("duplicate type registration")

	// ErrFieldConflict is returned when two classes declare differently-defined fields with one name
	ErrFieldConflict = errors.New("field conflict")

	// ErrNullabilityConstraint is returned when a subclass field is neither nullable, defaulted nor multi-valued
	ErrNullabilityConstraint = errors.New("subclass field must be nullable, have a default or be multi-valued")

	// ErrUnknownDiscriminator is returned by registry lookups of unregistered discriminators
	ErrUnknownDiscriminator = errors.New("unknown discriminator")

	// ErrInvalidDiscriminator is returned when a recast target is not part of the hierarchy
	ErrInvalidDiscriminator = errors.New("invalid discriminator")

	// ErrUntypedSave is returned when a record without discriminator is persisted
	ErrUntypedSave = errors.New("untyped record cannot be saved")

	// ErrTooManyFieldValues is returned when positional values exceed the field count
	ErrTooManyFieldValues = errors.New("number of values exceeds number of fields")

	// ErrNoRegistryFound is returned when no typed root can be found for a class
	ErrNoRegistryFound = errors.New("no suitable root found to recast")

	// ErrFieldDoesNotExist is returned when a field is not visible on a class
	ErrFieldDoesNotExist = errors.New("field does not exist")

	// ErrDeferredField is returned when reading a field that was not fetched
	ErrDeferredField = errors.New("field was deferred")
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a record already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// DuplicateRegistrationError is raised at declaration time when a discriminator is taken.
type DuplicateRegistrationError struct {
	Discriminator string
	Class         string
	Existing      string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("can't register %s type %q (already registered to %s)", e.Class, e.Discriminator, e.Existing)
}

func (e *DuplicateRegistrationError) Is(target error) bool {
	return target == ErrDuplicateRegistration
}

// FieldConflictError is raised when a field name is redeclared with a different definition.
type FieldConflictError struct {
	Field    string
	Class    string
	Existing string
}

func (e *FieldConflictError) Error() string {
	return fmt.Sprintf("field %q declared by %s conflicts with the definition from %s", e.Field, e.Class, e.Existing)
}

func (e *FieldConflictError) Is(target error) bool {
	return target == ErrFieldConflict
}

// NullabilityConstraintError is raised when a subclass field could not be absent for sibling rows.
type NullabilityConstraintError struct {
	Field string
	Class string
}

func (e *NullabilityConstraintError) Error() string {
	return fmt.Sprintf("field %q on %s: %s", e.Field, e.Class, ErrNullabilityConstraint.Error())
}

func (e *NullabilityConstraintError) Is(target error) bool {
	return target == ErrNullabilityConstraint
}

// UnknownDiscriminatorError is returned by registry lookups.
type UnknownDiscriminatorError struct {
	Discriminator string
}

func (e *UnknownDiscriminatorError) Error() string {
	return fmt.Sprintf("type registry: no type registered for %q", e.Discriminator)
}

func (e *UnknownDiscriminatorError) Is(target error) bool {
	return target == ErrUnknownDiscriminator
}

// InvalidDiscriminatorError is returned by recast for targets outside the record's hierarchy.
type InvalidDiscriminatorError struct {
	Root  string
	Value string
}

func (e *InvalidDiscriminatorError) Error() string {
	return fmt.Sprintf("invalid %s identifier: %q", e.Root, e.Value)
}

func (e *InvalidDiscriminatorError) Is(target error) bool {
	return target == ErrInvalidDiscriminator
}

// UntypedSaveError is returned by the persistence guard.
type UntypedSaveError struct {
	Class string
}

func (e *UntypedSaveError) Error() string {
	return fmt.Sprintf("untyped %s cannot be saved", e.Class)
}

func (e *UntypedSaveError) Is(target error) bool {
	return target == ErrUntypedSave
}

// TooManyFieldValuesError is returned when positional construction values exceed the field count.
type TooManyFieldValuesError struct {
	Class string
	Got   int
	Max   int
}

func (e *TooManyFieldValuesError) Error() string {
	return fmt.Sprintf("%s: got %d values for %d fields", e.Class, e.Got, e.Max)
}

func (e *TooManyFieldValuesError) Is(target error) bool {
	return target == ErrTooManyFieldValues
}

// NoRegistryFoundError is returned when a class has no typed root in its ancestor chain.
type NoRegistryFoundError struct {
	Class string
}

func (e *NoRegistryFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, ErrNoRegistryFound.Error())
}

func (e *NoRegistryFoundError) Is(target error) bool {
	return target == ErrNoRegistryFound
}

// FieldDoesNotExistError is returned when a field is unknown or outside a class's scope.
type FieldDoesNotExistError struct {
	Class string
	Field string
}

func (e *FieldDoesNotExistError) Error() string {
	return fmt.Sprintf("%s has no field named %q", e.Class, e.Field)
}

func (e *FieldDoesNotExistError) Is(target error) bool {
	return target == ErrFieldDoesNotExist
}

// DeferredFieldError is returned when a field was left out of a partial fetch.
type DeferredFieldError struct {
	Class string
	Field string
}

func (e *DeferredFieldError) Error() string {
	return fmt.Sprintf("%s.%s was deferred; refresh the record to load it", e.Class, e.Field)
}

func (e *DeferredFieldError) Is(target error) bool {
	return target == ErrDeferredField
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewDuplicateRegistrationError creates a new DuplicateRegistrationError
func NewDuplicateRegistrationError(discriminator, class, existing string) error {
	return &DuplicateRegistrationError{Discriminator: discriminator, Class: class, Existing: existing}
}

// NewFieldConflictError creates a new FieldConflictError
func NewFieldConflictError(field, class, existing string) error {
	return &FieldConflictError{Field: field, Class: class, Existing: existing}
}

// NewNullabilityConstraintError creates a new NullabilityConstraintError
func NewNullabilityConstraintError(field, class string) error {
	return &NullabilityConstraintError{Field: field, Class: class}
}

// NewUnknownDiscriminatorError creates a new UnknownDiscriminatorError
func NewUnknownDiscriminatorError(discriminator string) error {
	return &UnknownDiscriminatorError{Discriminator: discriminator}
}

// NewInvalidDiscriminatorError creates a new InvalidDiscriminatorError
func NewInvalidDiscriminatorError(root, value string) error {
	return &InvalidDiscriminatorError{Root: root, Value: value}
}

// NewUntypedSaveError creates a new UntypedSaveError
func NewUntypedSaveError(class string) error {
	return &UntypedSaveError{Class: class}
}

// NewTooManyFieldValuesError creates a new TooManyFieldValuesError
func NewTooManyFieldValuesError(class string, got, max int) error {
	return &TooManyFieldValuesError{Class: class, Got: got, Max: max}
}

// NewNoRegistryFoundError creates a new NoRegistryFoundError
func NewNoRegistryFoundError(class string) error {
	return &NoRegistryFoundError{Class: class}
}

// NewFieldDoesNotExistError creates a new FieldDoesNotExistError
func NewFieldDoesNotExistError(class, field string) error {
	return &FieldDoesNotExistError{Class: class, Field: field}
}

// NewDeferredFieldError creates a new DeferredFieldError
func NewDeferredFieldError(class, field string) error {
	return &DeferredFieldError{Class: class, Field: field}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidDiscriminator checks if an error is an invalid discriminator error
func IsInvalidDiscriminator(err error) bool {
	return errors.Is(err, ErrInvalidDiscriminator)
}

// IsUntypedSave checks if an error is an untyped save error
func IsUntypedSave(err error) bool {
	return errors.Is(err, ErrUntypedSave)
}

// IsFieldDoesNotExist checks if an error is a missing field error
func IsFieldDoesNotExist(err error) bool {
	return errors.Is(err, ErrFieldDoesNotExist)
}

// IsDeferredField checks if an error is a deferred field error
func IsDeferredField(err error) bool {
	return errors.Is(err, ErrDeferredField)
}

// IsFatal reports whether err is a declaration-time error. Those indicate a broken
// hierarchy definition and should abort startup.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDuplicateRegistration) ||
		errors.Is(err, ErrFieldConflict) ||
		errors.Is(err, ErrNullabilityConstraint) ||
		errors.Is(err, ErrNoRegistryFound)
}
