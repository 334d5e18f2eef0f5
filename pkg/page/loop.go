package page

import "context"

// Post queues fn to run on the page's task loop. Safe from any goroutine.
func (p *Page) Post(fn func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, fn)
	p.mu.Unlock()
	p.notify()
}

func (p *Page) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks plus in-flight fetches.
func (p *Page) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks) + p.inflight
}

// RunUntilIdle runs queued tasks on the calling goroutine until the queue is
// empty and no fetch is in flight, or ctx is done.
func (p *Page) RunUntilIdle(ctx context.Context) error {
	for {
		p.mu.Lock()
		tasks := p.tasks
		p.tasks = nil
		idle := len(tasks) == 0 && p.inflight == 0
		p.mu.Unlock()

		if idle {
			return nil
		}
		for _, task := range tasks {
			task()
		}
		if len(tasks) > 0 {
			continue
		}

		select {
		case <-p.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// goFetch runs fn on a background goroutine accounted as in-flight work.
// The completion task it returns is posted before the in-flight count drops,
// so RunUntilIdle never observes a gap.
func (p *Page) goFetch(fn func(ctx context.Context) func()) {
	p.mu.Lock()
	p.inflight++
	p.mu.Unlock()
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		done := fn(p.ctx)

		p.mu.Lock()
		if done != nil {
			p.tasks = append(p.tasks, done)
		}
		p.inflight--
		p.mu.Unlock()
		p.notify()
	}()
}
