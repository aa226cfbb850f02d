// Package validator decides whether a proposed bid is acceptable against an auction snapshot.
package validator

import (
	"time"

	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/shopspring/decimal"
)

// Proposal is a bid as submitted, before it is accepted into the ledger
type Proposal struct {
	BidderID    string
	Amount      decimal.Decimal
	SubmittedAt time.Time
}

// Validate applies the bidding rules in order and returns the first rejection, or model.Accepted.
// It has no side effects and is safe for concurrent use.
func Validate(auction model.Auction, p Proposal) model.RejectionReason {
	switch {
	case auction.Status != model.StatusLive:
		return model.RejectedAuctionNotLive
	case !p.SubmittedAt.Before(auction.EndsAt):
		return model.RejectedExpired
	case p.BidderID == auction.OwnerID:
		return model.RejectedSelfBid
	case p.Amount.LessThanOrEqual(auction.CurrentPrice):
		return model.RejectedTooLow
	}
	return model.Accepted
}

// MinimumNextBid is the lowest amount Validate would accept as the next bid
func MinimumNextBid(auction model.Auction) decimal.Decimal {
	return auction.CurrentPrice.Add(model.SmallestUnit)
}
