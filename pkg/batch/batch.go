package batch

import (
	"context"
	"fmt"
	"time"
)

// ChunkError failure of one chunk; the rest of the batch keeps going
type ChunkError struct {
	Chunk int    `json:"chunk"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	Err   string `json:"error"`
}

// Result outcome of a chunked batch
type Result struct {
	Succeeded int          `json:"succeeded"`
	Failed    []ChunkError `json:"failed,omitempty"`
	Cancelled bool         `json:"cancelled,omitempty"`
}

// HasFailures reports whether any chunk failed
func (r *Result) HasFailures() bool { return len(r.Failed) > 0 }

// Options chunk size and pause between chunks
type Options struct {
	Size  int
	Pause time.Duration
}

// Run splits items into chunks of opts.Size and hands each one to fn.
// fn returns how many items of the chunk were written. A chunk error is
// recorded and the next chunk runs. Cancellation is checked between chunks;
// chunks already written stay written.
func Run[T any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, chunk []T) (int, error)) Result {
	size := opts.Size
	if size <= 0 {
		size = len(items)
	}
	var res Result
	if len(items) == 0 {
		return res
	}

	chunk := 0
	for from := 0; from < len(items); from += size {
		if ctx.Err() != nil {
			res.Cancelled = true
			return res
		}
		if chunk > 0 && opts.Pause > 0 {
			select {
			case <-ctx.Done():
				res.Cancelled = true
				return res
			case <-time.After(opts.Pause):
			}
		}

		to := from + size
		if to > len(items) {
			to = len(items)
		}
		n, err := fn(ctx, items[from:to])
		res.Succeeded += n
		if err != nil {
			res.Failed = append(res.Failed, ChunkError{
				Chunk: chunk,
				From:  from,
				To:    to,
				Err:   err.Error(),
			})
		}
		chunk++
	}
	return res
}

// Error summary error for a batch with failed chunks, nil otherwise
func (r *Result) Error() error {
	if !r.HasFailures() {
		return nil
	}
	return fmt.Errorf("%d chunk(s) failed, first: %s", len(r.Failed), r.Failed[0].Err)
}
