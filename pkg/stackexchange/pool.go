package stackexchange

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// runPool fans the dumps out over a fixed number of workers. Each dump gets
// its own store and archive inside run, so workers share no state; a panic or
// error in one worker is counted and logged with the dump name, and the rest
// keep going.
func runPool(ctx context.Context, names []string, workers int, run func(ctx context.Context, name string) error) int {
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var failed int64

	for _, name := range names {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }() // release
			defer func() {
				if r := recover(); r != nil {
					atomic.AddInt64(&failed, 1)
					log.Printf("%s: worker panic: %v\n%s", name, r, debug.Stack())
				}
			}()

			if err := run(ctx, name); err != nil {
				atomic.AddInt64(&failed, 1)
				log.Printf("%s: processing failed: %v", name, err)
			}
		}(name)
	}

	wg.Wait()
	return int(atomic.LoadInt64(&failed))
}
