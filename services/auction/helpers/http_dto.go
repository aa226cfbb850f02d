package helpers

import (
	"time"

	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	OwnerID       string          `json:"owner_id" binding:"required"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartsAt      *time.Time      `json:"starts_at,omitempty"`
	EndsAt        time.Time       `json:"ends_at"`
}

// ToModel converts the request into service input
func (r CreateAuctionRequest) ToModel() model.NewAuction {
	in := model.NewAuction{
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Description:   r.Description,
		StartingPrice: r.StartingPrice,
		EndsAt:        r.EndsAt,
	}
	if r.StartsAt != nil {
		in.StartsAt = *r.StartsAt
	}
	return in
}

type PlaceBidRequest struct {
	AuctionID string          `json:"auction_id" binding:"required"`
	BidderID  string          `json:"bidder_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

type SetStatusRequest struct {
	Status      string `json:"status" binding:"required,oneof=pending live ended"`
	RequesterID string `json:"requester_id" binding:"required"`
}

type SweepRequest struct {
	Now *time.Time `json:"now,omitempty"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type AuctionResponse struct {
	AuctionID     string `json:"auction_id"`
	OwnerID       string `json:"owner_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartingPrice string `json:"starting_price"`
	CurrentPrice  string `json:"current_price"`
	StartsAt      string `json:"starts_at,omitempty"`
	EndsAt        string `json:"ends_at"`
	Status        string `json:"status"`
	Version       int64  `json:"version"`
	CreatedAt     string `json:"created_at"`
}

type BidResultResponse struct {
	Accepted bool            `json:"accepted"`
	Reason   string          `json:"reason,omitempty"`
	Bid      *BidResponse    `json:"bid,omitempty"`
	Auction  AuctionResponse `json:"auction"`
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount.StringFixed(model.MonetaryPrecision),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}

func NewAuctionResponse(a model.Auction) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:     a.AuctionID,
		OwnerID:       a.OwnerID,
		Title:         a.Title,
		Description:   a.Description,
		StartingPrice: a.StartingPrice.StringFixed(model.MonetaryPrecision),
		CurrentPrice:  a.CurrentPrice.StringFixed(model.MonetaryPrecision),
		EndsAt:        a.EndsAt.UTC().Format(time.RFC3339),
		Status:        string(a.Status),
		Version:       a.Version,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !a.StartsAt.IsZero() {
		resp.StartsAt = a.StartsAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func NewAuctionResponses(auctions []model.Auction) []AuctionResponse {
	out := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, NewAuctionResponse(a))
	}
	return out
}

func NewBidResultResponse(r model.BidResult) BidResultResponse {
	resp := BidResultResponse{
		Accepted: r.Accepted,
		Reason:   string(r.Reason),
		Auction:  NewAuctionResponse(r.Auction),
	}
	if r.Bid != nil {
		b := NewBidResponse(*r.Bid)
		resp.Bid = &b
	}
	return resp
}
