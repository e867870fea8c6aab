/*
Package errors provides semantic error types for the typedmodels library.

Every failure kind has a sentinel value, a struct type carrying the names involved, a
constructor and (for the common ones) an Is helper, so callers can branch with errors.Is:

	var (
	    ErrDuplicateRegistration = errors.New("duplicate type registration")
	    ErrFieldConflict         = errors.New("field conflict")
	    ErrNullabilityConstraint = errors.New("subclass field must be nullable, ...")
	    ErrInvalidDiscriminator  = errors.New("invalid discriminator")
	    ErrUntypedSave           = errors.New("untyped record cannot be saved")
	    ErrTooManyFieldValues    = errors.New("number of values exceeds number of fields")
	    ErrNoRegistryFound       = errors.New("no suitable root found to recast")
	)

Declaration-time errors (duplicate registration, field conflict, nullability) mean the
hierarchy definition is broken; IsFatal reports them so startup code can abort:

	if _, err := h.Declare("Feline", animal, typedmodels.WithFields(f)); errors.IsFatal(err) {
	    log.Fatal(err)
	}

Runtime errors are recoverable by the caller:

	if err := rec.RecastTo("testapp.macaroni"); errors.IsInvalidDiscriminator(err) {
	    // ask for another type
	}
*/
package errors
