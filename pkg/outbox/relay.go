// Package outbox implements the transactional outbox for committed-order
// events: rows are written in the same transaction as the order, and the
// relay polls pending rows and hands them to the dispatcher. Stock and order
// state never depend on this pipeline; it only announces what is already
// durable.
package outbox

import (
	"context"
	"log/slog"
	"time"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error
}

type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  *Dispatcher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
}

func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, relayID string) *Relay {
	return &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     5 * time.Second,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if err := r.tick(ctx); err != nil {
				r.log.Error("relay tick error", "err", err)
			}
		}
	}
}

func (r *Relay) tick(ctx context.Context) error {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	sent := make([]int64, 0, len(events))
	renewAt := time.Now().Add(r.lease / 2)
	for i, e := range events {
		// A slow broker can outlive the lease; renew it for the remainder of
		// the batch before another relay reclaims the rows.
		if time.Now().After(renewAt) {
			rest := make([]int64, 0, len(events)-i)
			for _, pending := range events[i:] {
				rest = append(rest, pending.ID)
			}
			if err := r.store.ExtendLease(ctx, r.relayID, rest, r.lease); err != nil {
				r.log.Error("relay lease renewal failed", "err", err)
			}
			renewAt = time.Now().Add(r.lease / 2)
		}
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			_ = r.store.MarkFailed(ctx, e.ID, err.Error())
			continue
		}
		sent = append(sent, e.ID)
	}
	if len(sent) > 0 {
		return r.store.MarkSent(ctx, sent)
	}
	return nil
}
