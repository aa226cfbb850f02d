// Package coordinator arbitrates concurrent bid submissions. Bids on one auction are
// processed one at a time inside that auction's exclusive section.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/statemachine"
	"github.com/Bardakor/Auction-House/utils"
	"github.com/shopspring/decimal"
)

// DefaultMaxConflictRetries bounds how often a submission is retried after a version conflict
const DefaultMaxConflictRetries = 3

// Coordinator runs the read-validate-write sequence for bids
type Coordinator struct {
	machine    *statemachine.Machine
	maxRetries int
}

// NewCoordinator creates a Coordinator. A negative maxRetries uses the default.
func NewCoordinator(machine *statemachine.Machine, maxRetries int) *Coordinator {
	if maxRetries < 0 {
		maxRetries = DefaultMaxConflictRetries
	}
	return &Coordinator{machine: machine, maxRetries: maxRetries}
}

// SubmitBid validates the input, then inside the auction's exclusive section applies any due
// lifecycle transition and the bid itself. Rejections come back as a result, not an error.
func (c *Coordinator) SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (model.BidResult, error) {
	if err := ValidateBidInput(auctionID, bidderID, amount); err != nil {
		return model.BidResult{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result, err := c.submitOnce(ctx, auctionID, bidderID, amount)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, auctionerrors.ErrConflict) {
			return model.BidResult{}, err
		}
		lastErr = err
		utils.Warn("coordinator: version conflict, retrying bid", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  bidderID,
			"attempt":    attempt + 1,
		})
	}

	return model.BidResult{}, fmt.Errorf("coordinator: submit bid to auction %s after %d attempts: %w: %w",
		auctionID, c.maxRetries+1, auctionerrors.ErrUnavailable, lastErr)
}

func (c *Coordinator) submitOnce(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (model.BidResult, error) {
	h, err := c.machine.Acquire(ctx, auctionID)
	if err != nil {
		return model.BidResult{}, fmt.Errorf("coordinator: %w", err)
	}
	defer h.Release()

	// lazy lifecycle: the sweeper may not have run yet
	if _, err := h.Reconcile(h.EnteredAt(), model.ReasonExpired); err != nil {
		return model.BidResult{}, fmt.Errorf("coordinator: reconcile auction %s: %w", auctionID, err)
	}

	result, err := h.ApplyBid(bidderID, amount)
	if err != nil {
		return model.BidResult{}, fmt.Errorf("coordinator: %w", err)
	}

	if result.Accepted {
		utils.Info("coordinator: bid accepted", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  bidderID,
			"bid_id":     result.Bid.BidID,
			"amount":     amount.String(),
			"version":    result.Auction.Version,
		})
	} else {
		utils.Info("coordinator: bid rejected", map[string]any{
			"auction_id":    auctionID,
			"bidder_id":     bidderID,
			"amount":        amount.String(),
			"reason":        result.Reason,
			"current_price": result.Auction.CurrentPrice.String(),
		})
	}
	return result, nil
}

// ValidateBidInput rejects malformed submissions before any state is touched
func ValidateBidInput(auctionID, bidderID string, amount decimal.Decimal) error {
	if strings.TrimSpace(auctionID) == "" || strings.TrimSpace(bidderID) == "" {
		return fmt.Errorf("coordinator: %w - missing auctionID or bidderID", auctionerrors.ErrValidation)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("coordinator: %w - non-positive bid amount", auctionerrors.ErrValidation)
	}
	if !amount.Round(model.MonetaryPrecision).Equal(amount) {
		return fmt.Errorf("coordinator: %w - bid amount has more than %d decimal places",
			auctionerrors.ErrValidation, model.MonetaryPrecision)
	}
	return nil
}
