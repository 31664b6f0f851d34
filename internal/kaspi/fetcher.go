package kaspi

import (
	"context"
	goerrors "errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/satushop/kaspisync/pkg/errors"
)

const maxPageRetries = 4

// pageFunc fetches one page and reports the server's total page count
type pageFunc[T any] func(page int) ([]T, int, error)

// fetchAll walks page=0,1,2,... until the reported total-pages run out
// or a page comes back short, accumulating items in server order.
// Returns the items and the number of successful page requests.
//
// Rate-limit and 5xx responses are retried with capped exponential
// backoff; every other error aborts the walk with no partial result.
func fetchAll[T any](ctx context.Context, size int, fetch pageFunc[T]) ([]T, int, error) {
	var all []T
	pages := 0

	for page := 0; ; page++ {
		items, totalPages, err := fetchPageWithRetry(ctx, page, fetch)
		if err != nil {
			return nil, pages, err
		}
		pages++
		all = append(all, items...)

		if len(items) < size {
			break
		}
		if totalPages > 0 && page+1 >= totalPages {
			break
		}
	}

	return all, pages, nil
}

func fetchPageWithRetry[T any](ctx context.Context, page int, fetch pageFunc[T]) ([]T, int, error) {
	var items []T
	var totalPages int

	op := func() error {
		var err error
		items, totalPages, err = fetch(page)
		if err == nil {
			return nil
		}
		if retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(policy, maxPageRetries), ctx))
	if err != nil {
		return nil, 0, err
	}
	return items, totalPages, nil
}

func retryable(err error) bool {
	var rateLimited *errors.ErrRateLimited
	if goerrors.As(err, &rateLimited) {
		return true
	}
	var server *errors.ErrServer
	if goerrors.As(err, &server) {
		return server.StatusCode >= http.StatusInternalServerError
	}
	return false
}
