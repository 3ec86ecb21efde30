package family

import (
	"context"
	"log"
	"sync"
	"time"
)

// Janitor periodically deletes expired family records. It needs no
// coordination with the engine: DeleteExpired only touches rows that are
// already unusable, so any timer cadence is safe. Redis-backed stores
// expire via key TTL and do not need one.
type Janitor struct {
	store    Store
	interval time.Duration

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewJanitor starts a sweep loop over store every interval. Intervals
// below one second are clamped to one minute.
func NewJanitor(store Store, interval time.Duration) *Janitor {
	if interval < time.Second {
		interval = time.Minute
	}

	j := &Janitor{
		store:    store,
		interval: interval,
		done:     make(chan struct{}),
	}

	j.wg.Add(1)
	go j.run()

	return j
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), j.interval)
			if _, err := j.store.DeleteExpired(ctx, time.Now()); err != nil {
				// Sweep failures are retried on the next tick.
				log.Print("goGrant: expired family sweep failed")
			}
			cancel()
		case <-j.done:
			return
		}
	}
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish.
// Idempotent.
func (j *Janitor) Stop() {
	if j == nil {
		return
	}
	j.stopOnce.Do(func() {
		close(j.done)
		j.wg.Wait()
	})
}
