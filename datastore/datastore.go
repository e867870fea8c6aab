/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"errors"

	"github.com/suparena/typedmodels/storagemodels"
)

// DataStore persists the rows of typed hierarchies. Every hierarchy lives in one table and
// every row carries its discriminator in the "type" column.
type DataStore interface {
	// GetOne loads a single row. Missing rows return a NotFoundError.
	GetOne(ctx context.Context, table, id string) (*storagemodels.Row, error)

	// Put inserts or replaces a row.
	Put(ctx context.Context, table string, row storagemodels.Row) error

	// Query returns the rows matching q, honouring its ordering, projection and paging.
	Query(ctx context.Context, q *storagemodels.Query) ([]storagemodels.Row, error)

	// Delete removes a row. Missing rows return a NotFoundError.
	Delete(ctx context.Context, table, id string) error
}

// RetryableError marks a backend failure that may succeed when attempted again.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable always reports true.
func (e *RetryableError) IsRetryable() bool {
	return true
}

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err, or anything it wraps, asks to be retried.
func IsRetryable(err error) bool {
	var r interface{ IsRetryable() bool }
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}
