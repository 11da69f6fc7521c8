package service

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
)

// DefaultWorkers bounds ExecuteBatch when WithWorkers is not set.
const DefaultWorkers = 8

// BatchItem pairs a request with its outcome.
type BatchItem struct {
	Request  Request
	Response *Response
	Err      error
}

// ExecuteBatch runs requests on a bounded worker pool.
//
// Requests for the same entity are serialized by the session lock, but their
// relative order is not defined. Callers that need ordering per entity must
// submit those requests in separate batches. Results keep the input order.
func (s *Service) ExecuteBatch(ctx context.Context, reqs []Request) []BatchItem {
	items := make([]BatchItem, len(reqs))
	if len(reqs) == 0 {
		return items
	}

	pool := pond.NewPool(s.workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for i := range reqs {
		items[i].Request = reqs[i]
		group.Submit(func() {
			items[i].Response, items[i].Err = s.Transition(ctx, reqs[i])
		})
	}
	if err := group.Wait(); err != nil {
		for i := range items {
			if items[i].Response == nil && items[i].Err == nil {
				items[i].Err = fmt.Errorf("batch aborted: %w", err)
			}
		}
	}
	return items
}
