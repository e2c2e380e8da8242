package monitor

import (
	"golang.org/x/sync/errgroup"
)

// forEach calls fn for every index in [0, n) on at most workers goroutines
// and waits for all of them. fn owns index i exclusively.
func forEach(workers, n int, fn func(i int)) {
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
