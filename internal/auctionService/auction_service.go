package auction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	"github.com/Bardakor/Auction-House/internal/coordinator"
	"github.com/Bardakor/Auction-House/internal/events"
	"github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/repository"
	"github.com/Bardakor/Auction-House/internal/statemachine"
	"github.com/Bardakor/Auction-House/internal/sweeper"
	"github.com/Bardakor/Auction-House/utils"
	"github.com/shopspring/decimal"
)

// Options tunes the service. The zero value is usable.
type Options struct {
	// LiveOnCreate opens auctions without a future starts_at immediately; otherwise they wait for an operator
	LiveOnCreate       bool
	MaxConflictRetries int
	SweepParallelism   int
	Clock              func() time.Time
	Hub                *events.Hub
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		LiveOnCreate:       true,
		MaxConflictRetries: coordinator.DefaultMaxConflictRetries,
		SweepParallelism:   sweeper.DefaultParallelism,
	}
}

// AuctionService defines the operations the surrounding request handlers call into
type AuctionService struct {
	store        repository.Store
	machine      *statemachine.Machine
	coordinator  *coordinator.Coordinator
	sweeper      *sweeper.Sweeper
	hub          *events.Hub
	liveOnCreate bool
}

// NewAuctionService wires the state machine, coordinator and sweeper over store
func NewAuctionService(store repository.Store, opts Options) *AuctionService {
	hub := opts.Hub
	if hub == nil {
		hub = events.NewHub(events.DefaultBuffer)
	}

	machineOpts := []statemachine.Option{statemachine.WithHub(hub)}
	if opts.Clock != nil {
		machineOpts = append(machineOpts, statemachine.WithClock(opts.Clock))
	}
	machine := statemachine.New(store, machineOpts...)

	return &AuctionService{
		store:        store,
		machine:      machine,
		coordinator:  coordinator.NewCoordinator(machine, opts.MaxConflictRetries),
		sweeper:      sweeper.NewSweeper(store, machine, opts.SweepParallelism),
		hub:          hub,
		liveOnCreate: opts.LiveOnCreate,
	}
}

// CreateAuction validates the input and registers a new auction
func (s *AuctionService) CreateAuction(in models.NewAuction) (models.Auction, error) {
	now := s.machine.Now()
	if err := validateNewAuction(in, now); err != nil {
		return models.Auction{}, err
	}

	status := models.StatusPending
	switch {
	case !in.StartsAt.IsZero():
		if !now.Before(in.StartsAt) {
			status = models.StatusLive
		}
	case s.liveOnCreate:
		status = models.StatusLive
	}

	auction := models.Auction{
		AuctionID:     utils.GenerateID(),
		OwnerID:       in.OwnerID,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		StartingPrice: in.StartingPrice,
		CurrentPrice:  in.StartingPrice,
		StartsAt:      utcOrZero(in.StartsAt),
		EndsAt:        in.EndsAt.UTC(),
		Status:        status,
		CreatedAt:     now,
	}

	if err := s.store.CreateAuction(auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for owner %s: %w", in.OwnerID, err)
	}

	utils.Info("service: auction created", map[string]any{
		"auction_id":     auction.AuctionID,
		"owner_id":       auction.OwnerID,
		"status":         auction.Status,
		"starting_price": auction.StartingPrice.String(),
		"ends_at":        auction.EndsAt.Format(time.RFC3339),
	})
	return auction, nil
}

// validateNewAuction checks input validity before any state is touched
func validateNewAuction(in models.NewAuction, now time.Time) error {
	if strings.TrimSpace(in.OwnerID) == "" {
		return fmt.Errorf("service: %w - missing ownerID", auctionerrors.ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("service: %w - title and description are required", auctionerrors.ErrValidation)
	}
	if !in.StartingPrice.IsPositive() {
		return fmt.Errorf("service: %w - non-positive starting price", auctionerrors.ErrValidation)
	}
	if !in.StartingPrice.Round(models.MonetaryPrecision).Equal(in.StartingPrice) {
		return fmt.Errorf("service: %w - starting price has more than %d decimal places",
			auctionerrors.ErrValidation, models.MonetaryPrecision)
	}
	if !in.EndsAt.After(now) {
		return fmt.Errorf("service: %w - ends_at must be in the future", auctionerrors.ErrValidation)
	}
	if !in.StartsAt.IsZero() && !in.StartsAt.Before(in.EndsAt) {
		return fmt.Errorf("service: %w - starts_at must be before ends_at", auctionerrors.ErrValidation)
	}
	return nil
}

func utcOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// GetAuction returns the latest snapshot of an auction
func (s *AuctionService) GetAuction(auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrValidation)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// ListAuctions returns auctions, optionally filtered by status
func (s *AuctionService) ListAuctions(status string) ([]models.Auction, error) {
	filter := models.Status(status)
	if status != "" && !filter.Valid() {
		return nil, fmt.Errorf("service: %w - unknown status %q", auctionerrors.ErrValidation, status)
	}

	auctions, err := s.store.ListAuctions(filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// PlaceBid submits a bid through the coordinator
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (models.BidResult, error) {
	result, err := s.coordinator.SubmitBid(ctx, auctionID, bidderID, amount)
	if err != nil {
		return models.BidResult{}, fmt.Errorf("service: failed to place bid on auction %s by user %s: %w", auctionID, bidderID, err)
	}
	return result, nil
}

// GetBidsForAuction returns an auction's accepted bids, highest first
func (s *AuctionService) GetBidsForAuction(auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrValidation)
	}

	ledger, err := s.store.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	// the ledger is strictly increasing, so reversing it orders by amount
	bids := make([]models.Bid, len(ledger))
	for i, b := range ledger {
		bids[len(ledger)-1-i] = b
	}
	return bids, nil
}

// GetHighestBid returns the winning (highest) bid of an auction
func (s *AuctionService) GetHighestBid(auctionID string) (models.Bid, error) {
	if auctionID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrValidation)
	}

	bid, err := s.store.GetLastBid(auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get highest bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}

// GetBidsByUser returns all bids a user has placed, newest first
func (s *AuctionService) GetBidsByUser(userID string) ([]models.Bid, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrValidation)
	}

	bids, err := s.store.GetBidsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err)
	}
	return bids, nil
}

// SetStatus moves an auction to target on behalf of its owner
func (s *AuctionService) SetStatus(ctx context.Context, auctionID string, target models.Status, requesterID string) (models.Auction, error) {
	if auctionID == "" || requesterID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing auctionID or requesterID", auctionerrors.ErrValidation)
	}
	if !target.Valid() {
		return models.Auction{}, fmt.Errorf("service: %w - unknown status %q", auctionerrors.ErrValidation, target)
	}

	h, err := s.machine.Acquire(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to set status of auction %s: %w", auctionID, err)
	}
	defer h.Release()

	if h.Snapshot().OwnerID != requesterID {
		return models.Auction{}, fmt.Errorf("service: set status of auction %s by %s: %w", auctionID, requesterID, auctionerrors.ErrForbidden)
	}

	auction, err := h.Transition(target, models.ReasonOperator)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to set status of auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// DeleteAuction removes an auction that has no bids, on behalf of its owner
func (s *AuctionService) DeleteAuction(ctx context.Context, auctionID, requesterID string) error {
	if auctionID == "" || requesterID == "" {
		return fmt.Errorf("service: %w - missing auctionID or requesterID", auctionerrors.ErrValidation)
	}

	h, err := s.machine.Acquire(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err)
	}
	defer h.Release()

	if h.Snapshot().OwnerID != requesterID {
		return fmt.Errorf("service: delete auction %s by %s: %w", auctionID, requesterID, auctionerrors.ErrForbidden)
	}
	if err := h.Delete(); err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err)
	}
	return nil
}

// SweepExpired runs one lifecycle pass at now. A zero now uses the service clock.
func (s *AuctionService) SweepExpired(ctx context.Context, now time.Time) (sweeper.Result, error) {
	if now.IsZero() {
		now = s.machine.Now()
	}

	res, err := s.sweeper.Sweep(ctx, now)
	if err != nil {
		return res, fmt.Errorf("service: sweep at %s: %w", now.Format(time.RFC3339), err)
	}
	return res, nil
}

// RunSweeper sweeps every interval until ctx is done
func (s *AuctionService) RunSweeper(ctx context.Context, interval time.Duration) {
	s.sweeper.Run(ctx, interval)
}

// Subscribe streams committed snapshots of one auction until cancel is called
func (s *AuctionService) Subscribe(auctionID string) (<-chan models.Auction, func(), error) {
	if _, err := s.store.GetAuction(auctionID); err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
			return nil, nil, fmt.Errorf("service: subscribe to auction %s: %w", auctionID, err)
		}
		return nil, nil, fmt.Errorf("service: subscribe to auction %s: %w: %w", auctionID, auctionerrors.ErrUnavailable, err)
	}

	updates, cancel := s.hub.Subscribe(auctionID)
	return updates, cancel, nil
}
