package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/routegate/service/dao"
)

// WithIntent filters records by intent.
func WithIntent(intent string) dao.Filter[Pending] {
	return func(p *Pending) bool { return p.Intent == intent }
}

// WithAction filters records by proposed action.
func WithAction(action string) dao.Filter[Pending] {
	return func(p *Pending) bool { return p.Action == action }
}

// WithStatus filters records by status.
func WithStatus(status Status) dao.Filter[Pending] {
	return func(p *Pending) bool { return p.Status == status }
}

// ListPending returns undecided records matching filters.
func ListPending(ctx context.Context, svc Service, filters ...dao.Filter[Pending]) ([]*Pending, error) {
	return svc.List(ctx, append([]dao.Filter[Pending]{WithStatus(StatusPending)}, filters...)...)
}

// WaitForDecision polls until the record leaves the pending status or timeout elapses.
func WaitForDecision(ctx context.Context, svc Service, traceID string, timeout time.Duration) (*Pending, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		rec, err := svc.Get(ctx, traceID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, fmt.Errorf("approval %v: %w", traceID, dao.ErrNotFound)
		}
		if rec.Status != StatusPending {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for decision on %v: %w", traceID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// DecisionFunc decides what to do with a pending record.
// Return (true,  "") to approve
//
//	(false, "…") to reject with reason.
type DecisionFunc func(rec *Pending) (approved bool, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every record; onDecided is called with each record it decided first. It
// returns stop(); call it (or cancel ctx) to exit.
//
// Decisions are only recorded in svc. Nothing runs the approved request
// unless onDecided resumes it, e.g. with Orchestrator.Resume; routegate's
// Service.AutoApprove wires that.
func AutoDecider(ctx context.Context, svc Service, fn DecisionFunc, interval time.Duration, onDecided ...func(*Pending)) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				records, _ := ListPending(ctx, svc)
				for _, rec := range records {
					ok, reason := fn(rec)
					status := StatusRejected
					if ok {
						status = StatusApproved
					}
					decided, claimed, _ := svc.Resolve(ctx, rec.TraceID, status, reason)
					if decided == nil || !claimed {
						continue
					}
					for _, cb := range onDecided {
						cb(decided)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending records. Like AutoDecider it
// does not resume them.
func AutoApprove(ctx context.Context, svc Service, interval time.Duration, onDecided ...func(*Pending)) func() {
	return AutoDecider(ctx, svc, func(*Pending) (bool, string) { return true, "" }, interval, onDecided...)
}

// AutoReject automatically rejects all pending records with the given reason.
func AutoReject(ctx context.Context, svc Service, reason string, interval time.Duration, onDecided ...func(*Pending)) func() {
	return AutoDecider(ctx, svc, func(*Pending) (bool, string) { return false, reason }, interval, onDecided...)
}
