package checker

import (
	"context"
	"log"
	"time"
)

// Job runs a task on a fixed interval, independent of any host runtime.
// Ready, when set, blocks the first run until dependencies are live
// (database reachable, push channel bound). Stop cancels the loop and
// abandons any run in flight.
type Job struct {
	Name     string
	Interval time.Duration
	Ready    func(ctx context.Context) error
	Task     func(ctx context.Context) error

	cancel context.CancelFunc
	done   chan struct{}
}

func (j *Job) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	j.cancel = cancel
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)

		if j.Ready != nil {
			if err := j.Ready(ctx); err != nil {
				log.Printf("[job %s] not starting: %v", j.Name, err)
				return
			}
		}
		log.Printf("[job %s] starting, interval %s", j.Name, j.Interval)

		j.run(ctx)

		ticker := time.NewTicker(j.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.run(ctx)
			}
		}
	}()
}

func (j *Job) run(ctx context.Context) {
	if err := j.Task(ctx); err != nil {
		log.Printf("[job %s] run failed: %v", j.Name, err)
	}
}

// Stop cancels the job and waits for the loop goroutine to exit.
func (j *Job) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
}
