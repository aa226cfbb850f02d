// Package statemachine owns auction lifecycle transitions and the current price.
// All mutation happens through a Handle, which holds the auction's exclusive section.
package statemachine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	"github.com/Bardakor/Auction-House/internal/events"
	"github.com/Bardakor/Auction-House/internal/locks"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/repository"
	"github.com/Bardakor/Auction-House/internal/validator"
	"github.com/Bardakor/Auction-House/utils"
	"github.com/shopspring/decimal"
)

// Machine serializes every mutation of one auction behind a per-auction lock
type Machine struct {
	store repository.Store
	locks *locks.Keyed
	hub   *events.Hub
	now   func() time.Time
}

// Option configures a Machine
type Option func(*Machine)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithHub publishes every committed snapshot to h
func WithHub(h *events.Hub) Option {
	return func(m *Machine) { m.hub = h }
}

// New creates a Machine over store
func New(store repository.Store, opts ...Option) *Machine {
	m := &Machine{
		store: store,
		locks: locks.NewKeyed(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the machine's current time
func (m *Machine) Now() time.Time {
	return m.now()
}

// Acquire enters the auction's exclusive section and loads its latest snapshot.
// If ctx ends before the section is free, nothing has been observed or changed.
func (m *Machine) Acquire(ctx context.Context, auctionID string) (*Handle, error) {
	release, err := m.locks.Acquire(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("state machine: acquire auction %s: %w: %w", auctionID, auctionerrors.ErrUnavailable, err)
	}

	enteredAt := m.now()
	auction, err := m.store.GetAuction(auctionID)
	if err != nil {
		release()
		if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
			return nil, fmt.Errorf("state machine: %w", err)
		}
		return nil, fmt.Errorf("state machine: load auction %s: %w", auctionID, storeFault(err))
	}

	return &Handle{m: m, auction: auction, enteredAt: enteredAt, release: release}, nil
}

// Transition moves an auction to target if the lifecycle allows it
func (m *Machine) Transition(ctx context.Context, auctionID string, target model.Status, reason model.TransitionReason) (model.Auction, error) {
	h, err := m.Acquire(ctx, auctionID)
	if err != nil {
		return model.Auction{}, err
	}
	defer h.Release()
	return h.Transition(target, reason)
}

// EndIfExpired ends a live auction whose ends_at is at or before now.
// It reports false without error when the auction is not live or not yet due, so racing callers are safe.
func (m *Machine) EndIfExpired(ctx context.Context, auctionID string, now time.Time) (bool, error) {
	h, err := m.Acquire(ctx, auctionID)
	if err != nil {
		return false, err
	}
	defer h.Release()

	a := h.Snapshot()
	if a.Status != model.StatusLive || now.Before(a.EndsAt) {
		return false, nil
	}
	if _, err := h.Transition(model.StatusEnded, model.ReasonScheduled); err != nil {
		return false, err
	}
	return true, nil
}

// StartIfDue opens a pending auction whose starts_at has arrived. An auction whose
// ends_at has also passed goes straight to ended. It returns the resulting status.
func (m *Machine) StartIfDue(ctx context.Context, auctionID string, now time.Time) (model.Status, bool, error) {
	h, err := m.Acquire(ctx, auctionID)
	if err != nil {
		return "", false, err
	}
	defer h.Release()

	before := h.Snapshot().Status
	if before != model.StatusPending {
		return before, false, nil
	}
	changed, err := h.Reconcile(now, model.ReasonScheduled)
	return h.Snapshot().Status, changed, err
}

// Handle is an open exclusive section on one auction. It is not safe for use by more than one goroutine.
// Its methods take no context: once inside, an operation runs to completion.
type Handle struct {
	m         *Machine
	auction   model.Auction
	enteredAt time.Time
	release   func()
}

// Snapshot returns the latest committed state of the auction
func (h *Handle) Snapshot() model.Auction {
	return h.auction
}

// EnteredAt is the time the exclusive section was entered
func (h *Handle) EnteredAt() time.Time {
	return h.enteredAt
}

// Release leaves the exclusive section. Calling it more than once is a no-op.
func (h *Handle) Release() {
	h.release()
}

// Transition validates and commits a status change, bumping the version
func (h *Handle) Transition(target model.Status, reason model.TransitionReason) (model.Auction, error) {
	cur := h.auction
	if !CanTransition(cur.Status, target) {
		return cur, fmt.Errorf("state machine: auction %s %s -> %s: %w",
			cur.AuctionID, cur.Status, target, auctionerrors.ErrInvalidTransition)
	}

	next := cur
	next.Status = target
	next.Version++

	err := h.m.store.Update(func(tx repository.Tx) error {
		tx.PutAuction(next, cur.Version)
		return nil
	})
	if err != nil {
		utils.Error("state machine: transition commit failed", map[string]any{
			"auction_id": cur.AuctionID,
			"from":       cur.Status,
			"to":         target,
			"error":      err.Error(),
		})
		return cur, fmt.Errorf("state machine: transition auction %s to %s: %w", cur.AuctionID, target, storeFault(err))
	}

	h.commit(next)
	utils.Info("state machine: auction transitioned", map[string]any{
		"auction_id": next.AuctionID,
		"from":       cur.Status,
		"to":         next.Status,
		"reason":     reason,
		"version":    next.Version,
	})
	return next, nil
}

// Reconcile applies the time-driven transitions that are due at now: a pending auction with
// an auto-start time goes live, and a live auction past ends_at ends with endReason.
func (h *Handle) Reconcile(now time.Time, endReason model.TransitionReason) (bool, error) {
	a := h.auction
	expired := !now.Before(a.EndsAt)

	switch {
	case a.Status == model.StatusPending && a.HasAutoStart() && !now.Before(a.StartsAt):
		if expired {
			_, err := h.Transition(model.StatusEnded, endReason)
			return err == nil, err
		}
		_, err := h.Transition(model.StatusLive, model.ReasonAutoStart)
		return err == nil, err
	case a.Status == model.StatusLive && expired:
		_, err := h.Transition(model.StatusEnded, endReason)
		return err == nil, err
	}
	return false, nil
}

// ApplyBid re-validates the bid against the latest state and, if accepted, sets the current
// price, bumps the version and appends the bid to the ledger in one store transaction.
// A rejection is returned as a result with a nil error.
func (h *Handle) ApplyBid(bidderID string, amount decimal.Decimal) (model.BidResult, error) {
	cur := h.auction
	reason := validator.Validate(cur, validator.Proposal{
		BidderID:    bidderID,
		Amount:      amount,
		SubmittedAt: h.enteredAt,
	})
	if reason != model.Accepted {
		return model.BidResult{Accepted: false, Reason: reason, Auction: cur}, nil
	}

	createdAt := h.enteredAt
	last, err := h.m.store.GetLastBid(cur.AuctionID)
	switch {
	case err == nil:
		// clock skew must not reorder the ledger
		if createdAt.Before(last.CreatedAt) {
			createdAt = last.CreatedAt
		}
	case errors.Is(err, auctionerrors.ErrNoBids):
	default:
		return model.BidResult{}, fmt.Errorf("state machine: read ledger tail of auction %s: %w", cur.AuctionID, storeFault(err))
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: cur.AuctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: createdAt,
	}

	next := cur
	next.CurrentPrice = amount
	next.Version++

	err = h.m.store.Update(func(tx repository.Tx) error {
		tx.PutAuction(next, cur.Version)
		tx.AppendBid(bid)
		return nil
	})
	if err != nil {
		utils.Error("state machine: bid commit failed", map[string]any{
			"auction_id": cur.AuctionID,
			"bidder_id":  bidderID,
			"amount":     amount.String(),
			"error":      err.Error(),
		})
		return model.BidResult{}, fmt.Errorf("state machine: apply bid to auction %s: %w", cur.AuctionID, storeFault(err))
	}

	h.commit(next)
	return model.BidResult{Accepted: true, Bid: &bid, Auction: next}, nil
}

// Delete removes the auction. The store refuses when the ledger is not empty.
func (h *Handle) Delete() error {
	id := h.auction.AuctionID
	err := h.m.store.Update(func(tx repository.Tx) error {
		tx.DeleteAuction(id)
		return nil
	})
	switch {
	case err == nil:
		utils.Info("state machine: auction deleted", map[string]any{"auction_id": id})
		return nil
	case errors.Is(err, auctionerrors.ErrAuctionHasBids), errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return fmt.Errorf("state machine: delete auction %s: %w", id, err)
	default:
		return fmt.Errorf("state machine: delete auction %s: %w", id, storeFault(err))
	}
}

func (h *Handle) commit(next model.Auction) {
	h.auction = next
	if h.m.hub != nil {
		h.m.hub.Publish(next)
	}
}

// storeFault classifies a store error. Version conflicts stay retryable, anything else is unavailability.
func storeFault(err error) error {
	if errors.Is(err, auctionerrors.ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %w", auctionerrors.ErrUnavailable, err)
}
