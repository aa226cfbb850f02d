package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonetaryPrecision is the number of decimal places a price or bid amount may carry
const MonetaryPrecision int32 = 2

// SmallestUnit is the minimum representable price increment (0.01)
var SmallestUnit = decimal.New(1, -MonetaryPrecision)

// Status is the lifecycle state of an auction
type Status string

const (
	StatusPending Status = "pending"
	StatusLive    Status = "live"
	StatusEnded   Status = "ended"
)

// Valid reports whether s is one of the known lifecycle states
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusLive, StatusEnded:
		return true
	}
	return false
}

// TransitionReason records what triggered a lifecycle transition
type TransitionReason string

const (
	ReasonOperator  TransitionReason = "operator"
	ReasonExpired   TransitionReason = "expired"    // lazy transition on the bid path
	ReasonScheduled TransitionReason = "scheduled"  // lifecycle sweeper
	ReasonAutoStart TransitionReason = "auto_start" // starts_at reached
)

// RejectionReason is the outcome code of a bid validation. The zero value means accepted.
type RejectionReason string

const (
	Accepted               RejectionReason = ""
	RejectedTooLow         RejectionReason = "too_low"
	RejectedAuctionNotLive RejectionReason = "auction_not_live"
	RejectedSelfBid        RejectionReason = "self_bid"
	RejectedExpired        RejectionReason = "expired"
)

// User represents a participant in the auction
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Auction is an immutable snapshot of an auction's metadata and lifecycle state
type Auction struct {
	AuctionID     string          `json:"auction_id"`
	OwnerID       string          `json:"owner_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StartsAt      time.Time       `json:"starts_at,omitzero"`
	EndsAt        time.Time       `json:"ends_at"`
	Status        Status          `json:"status"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HasAutoStart reports whether the auction goes live on its own at StartsAt
func (a Auction) HasAutoStart() bool {
	return !a.StartsAt.IsZero()
}

// Bid represents an accepted bid in an auction's ledger
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewAuction holds the caller supplied fields for creating an auction
type NewAuction struct {
	OwnerID       string
	Title         string
	Description   string
	StartingPrice decimal.Decimal
	StartsAt      time.Time // zero means no auto-start time
	EndsAt        time.Time
}

// BidResult is the outcome of a bid submission. A rejection is a normal result, not an error.
type BidResult struct {
	Accepted bool            `json:"accepted"`
	Reason   RejectionReason `json:"reason,omitempty"`
	Bid      *Bid            `json:"bid,omitempty"`
	Auction  Auction         `json:"auction"`
}
