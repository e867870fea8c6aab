/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/suparena/typedmodels/storagemodels"
)

// Stream pages through the rows matching q and delivers them converted by convert. Pages are
// fetched with Offset/Limit so every DataStore can be streamed. The query's own Offset is the
// starting point and its Limit, when set, caps the total number of rows.
// A failed page is skipped when the ErrorHandler asks to continue; skipped rows count against
// the Limit, and more than MaxRetries consecutive skipped pages end the stream with an error.
// The returned channel is closed when the stream ends or ctx is cancelled.
func Stream[T any](
	ctx context.Context,
	ds DataStore,
	q *storagemodels.Query,
	convert func(storagemodels.Row) (T, error),
	opts ...storagemodels.StreamOption,
) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.PageSize <= 0 {
		options.PageSize = storagemodels.DefaultStreamOptions().PageSize
	}
	if options.BufferSize < 0 {
		options.BufferSize = 0
	}

	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)
	go streamWorker(ctx, ds, q.Clone(), convert, options, resultCh)
	return resultCh
}

func streamWorker[T any](
	ctx context.Context,
	ds DataStore,
	q *storagemodels.Query,
	convert func(storagemodels.Row) (T, error),
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	startTime := time.Now()
	var errs []error
	var mu sync.Mutex

	total := q.Limit
	offset := q.Offset
	skippedRows := 0
	skippedPages := 0

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		mu.Lock()
		progress := storagemodels.StreamProgress{
			ItemsProcessed: atomic.LoadInt64(&itemIndex),
			PagesProcessed: pageNumber,
			NextOffset:     offset,
			Errors:         append([]error(nil), errs...),
			StartTime:      startTime,
		}
		mu.Unlock()
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	fail := func(err error) {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult[T]{
			Error: err,
			Meta: storagemodels.StreamMeta{
				Index:      atomic.LoadInt64(&itemIndex),
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			},
		}:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		page := q.Clone()
		page.Offset = offset
		page.Limit = options.PageSize
		if total > 0 {
			remaining := total - int(atomic.LoadInt64(&itemIndex)) - skippedRows
			if remaining <= 0 {
				break
			}
			if remaining < page.Limit {
				page.Limit = remaining
			}
		}

		rows, err := queryWithRetry(ctx, ds, page, options)
		if err != nil {
			if options.ErrorHandler == nil || !options.ErrorHandler(err) {
				fail(fmt.Errorf("stream page %d: %w", pageNumber+1, err))
				return
			}
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			skippedPages++
			if skippedPages > options.MaxRetries {
				fail(fmt.Errorf("stream stopped after %d consecutive failed pages: %w", skippedPages, err))
				return
			}
			skippedRows += page.Limit
			offset += page.Limit
			continue
		}

		skippedPages = 0
		pageNumber++
		for _, row := range rows {
			item, convErr := convert(row)
			result := storagemodels.StreamResult[T]{
				Item:  item,
				Error: convErr,
				Meta: storagemodels.StreamMeta{
					Index:      atomic.LoadInt64(&itemIndex),
					PageNumber: pageNumber,
					Timestamp:  time.Now(),
				},
			}
			atomic.AddInt64(&itemIndex, 1)

			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}

			if convErr != nil {
				mu.Lock()
				errs = append(errs, convErr)
				mu.Unlock()
			}
		}
		offset += len(rows)

		reportProgress()

		if len(rows) < page.Limit {
			break
		}
	}

	reportProgress()
}

// queryWithRetry runs one page query, retrying failures that report themselves as retryable.
func queryWithRetry(ctx context.Context, ds DataStore, q *storagemodels.Query, options storagemodels.StreamOptions) ([]storagemodels.Row, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rows, err := ds.Query(ctx, q)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}

		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}
