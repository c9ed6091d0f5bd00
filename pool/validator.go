package pool

import (
	"context"
	"time"
)

// runValidation is the background task that, every ValidationInterval,
// reaps idle connections that have been idle for IdleTimeout or longer
// (never dropping the idle set below MinIdle) and tops the idle set back
// up to MinIdle. Each reaped connection is run through Validate before it
// is closed, but only to log a failure: it is closed either way. It never
// holds p.mu while doing I/O, only to snapshot or update state.
func (p *Pool) runValidation() {
	defer p.validationWG.Done()

	interval := p.cfg.ValidationInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopValidation:
			return
		case <-ticker.C:
			p.validateIdleSweep()
			p.maintainMinIdle()
		}
	}
}

func (p *Pool) validateIdleSweep() {
	now := time.Now()
	idleTimeout := p.cfg.IdleTimeout

	p.mu.Lock()
	var stale []*entry
	fresh := p.idle[:0:0]
	for _, e := range p.idle {
		if idleTimeout > 0 && now.Sub(e.idleSince) >= idleTimeout {
			stale = append(stale, e)
		} else {
			fresh = append(fresh, e)
		}
	}
	// Idle reap never drops the idle set below MinIdle: keep the newest
	// stale candidates idle if reaping all of them would breach the
	// floor.
	keep := p.cfg.MinIdle - len(fresh)
	if keep > 0 && keep < len(stale) {
		fresh = append(fresh, stale[len(stale)-keep:]...)
		stale = stale[:len(stale)-keep]
	} else if keep >= len(stale) {
		fresh = append(fresh, stale...)
		stale = nil
	}
	p.idle = fresh
	p.currentSize -= len(stale)
	p.metrics.setCurrentSize(p.currentSize)
	p.metrics.setIdle(len(p.idle))
	p.mu.Unlock()

	for _, e := range stale {
		if err := p.driver.Validate(context.Background(), e.conn); err != nil {
			p.logger.Warnw("idle connection failed validation, reaping", "error", err)
		}
		e.conn.Close()
	}
}

func (p *Pool) maintainMinIdle() {
	for {
		p.mu.Lock()
		need := p.cfg.MinIdle > len(p.idle) && p.currentSize < p.cfg.MaxSize
		if !need {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		conn, err := p.createConnection(context.Background())
		if err != nil {
			p.logger.Warnw("failed to top up min_idle", "error", err)
			return
		}

		p.mu.Lock()
		p.idle = append(p.idle, &entry{conn: conn, idleSince: time.Now()})
		p.currentSize++
		p.metrics.setCurrentSize(p.currentSize)
		p.metrics.setIdle(len(p.idle))
		p.mu.Unlock()
	}
}
