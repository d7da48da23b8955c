package table

import (
	"context"

	"github.com/star/orbitgo/internal/orbit"
)

// Runner fans indexed work out across goroutines. fn is called once for every
// index in [0, n); the first failure is returned.
type Runner interface {
	Run(ctx context.Context, n int, fn func(i int) error) error
}

// BuildParallel constructs a table with the bin expansions spread over r.
// Bins are independent, so the result is identical to Build.
func BuildParallel(ctx context.Context, r Runner, el orbit.Elements, bins int) (*Table, error) {
	t, err := prepare(el, bins)
	if err != nil {
		return nil, err
	}
	if err := r.Run(ctx, bins-1, t.fill); err != nil {
		return nil, err
	}
	t.close()
	return t, nil
}
