package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OAtef/coffeehouse/internal/core/domain"
	"github.com/OAtef/coffeehouse/internal/port"
)

// Statuses in which an order holds consumed stock. Entering this set from
// outside debits ingredients once; transitions inside the set are no-ops so
// stock is never double-debited.
var consumingStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPreparing: true,
	domain.OrderStatusReady:     true,
	domain.OrderStatusCompleted: true,
}

var returningStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusCancelled: true,
}

type transitionAction int

const (
	actionNone transitionAction = iota
	actionConsume
	actionReturn
)

// classify decides what a single (old, new) status transition does to stock.
// An order leaving the consuming set into a status that is neither consuming
// nor a recognized return state is treated as abandoned and its stock is
// returned. That catch-all applies uniformly, including reverts to pending;
// flagged for product review in DESIGN.md.
func classify(oldStatus, newStatus domain.OrderStatus) transitionAction {
	wasConsuming := consumingStatuses[oldStatus]
	isConsuming := consumingStatuses[newStatus]

	switch {
	case !wasConsuming && isConsuming:
		return actionConsume
	case wasConsuming && returningStatuses[newStatus]:
		return actionReturn
	case wasConsuming && !isConsuming:
		return actionReturn
	default:
		return actionNone
	}
}

// RequiresAdjustment reports whether a transition would touch stock. Callers
// may use it to skip the call entirely, but OnOrderStatusChanged is safe to
// invoke either way.
func RequiresAdjustment(oldStatus, newStatus domain.OrderStatus) bool {
	return classify(oldStatus, newStatus) != actionNone
}

// TransitionPolicy is the engine's entry point: told about a committed
// status change, it decides whether to consume or return ingredient stock
// and drives the calculator and the adjuster.
type TransitionPolicy struct {
	calc     *ConsumptionCalculator
	adjuster *StockAdjuster
	// guard is the optional idempotency hardening; nil disables it, in which
	// case replaying a transition produces a double adjustment.
	guard port.TransitionGuard
	log   *slog.Logger
}

func NewTransitionPolicy(calc *ConsumptionCalculator, adjuster *StockAdjuster, guard port.TransitionGuard, log *slog.Logger) *TransitionPolicy {
	return &TransitionPolicy{calc: calc, adjuster: adjuster, guard: guard, log: log}
}

// OnOrderStatusChanged must be called exactly once per committed status
// transition, after the new status is durably persisted by the caller. On
// failure the error propagates unchanged: the engine never retries and never
// rolls the status back; ingredients adjusted before the failure stay
// adjusted.
func (p *TransitionPolicy) OnOrderStatusChanged(ctx context.Context, orderID int64, oldStatus, newStatus domain.OrderStatus, actorID int64) error {
	action := classify(oldStatus, newStatus)
	if action == actionNone {
		p.log.Debug("transition needs no stock adjustment",
			"order_id", orderID, "from", oldStatus, "to", newStatus)
		return nil
	}

	if p.guard != nil {
		key := fmt.Sprintf("transition:%d:%s:%s", orderID, oldStatus, newStatus)
		ok, err := p.guard.Acquire(ctx, key)
		if err != nil {
			return fmt.Errorf("transition guard for order %d: %w", orderID, err)
		}
		if !ok {
			p.log.Warn("transition already applied, skipping",
				"order_id", orderID, "from", oldStatus, "to", newStatus)
			return nil
		}
	}

	entries, err := p.calc.Compute(ctx, orderID)
	if err != nil {
		p.releaseGuard(ctx, orderID, oldStatus, newStatus)
		return err
	}

	if len(entries) == 0 {
		p.log.Info("no recipe-linked items, nothing to adjust",
			"order_id", orderID, "from", oldStatus, "to", newStatus)
		return nil
	}

	direction := domain.DirectionConsume
	if action == actionReturn {
		direction = domain.DirectionReturn
	}

	if err := p.adjuster.Apply(ctx, entries, direction, orderID, actorID); err != nil {
		p.releaseGuard(ctx, orderID, oldStatus, newStatus)
		return err
	}

	p.log.Info("transition adjustment applied",
		"order_id", orderID,
		"from", oldStatus,
		"to", newStatus,
		"direction", direction,
		"ingredients", len(entries))
	return nil
}

// releaseGuard frees the idempotency key after a failed adjustment so the
// caller can retry the whole transition.
func (p *TransitionPolicy) releaseGuard(ctx context.Context, orderID int64, oldStatus, newStatus domain.OrderStatus) {
	if p.guard == nil {
		return
	}
	key := fmt.Sprintf("transition:%d:%s:%s", orderID, oldStatus, newStatus)
	if err := p.guard.Release(ctx, key); err != nil {
		p.log.Error("failed to release transition guard",
			"order_id", orderID, "key", key, "err", err)
	}
}
