package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/sweeper"
	"github.com/Bardakor/Auction-House/services/auction/helpers"
	"github.com/Bardakor/Auction-House/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_handler.go -package=handler

type AuctionServiceInterface interface {
	CreateAuction(in model.NewAuction) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions(status string) ([]model.Auction, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (model.BidResult, error)
	GetBidsForAuction(auctionID string) ([]model.Bid, error)
	GetHighestBid(auctionID string) (model.Bid, error)
	GetBidsByUser(userID string) ([]model.Bid, error)
	SetStatus(ctx context.Context, auctionID string, target model.Status, requesterID string) (model.Auction, error)
	DeleteAuction(ctx context.Context, auctionID, requesterID string) error
	SweepExpired(ctx context.Context, now time.Time) (sweeper.Result, error)
	Subscribe(auctionID string) (<-chan model.Auction, func(), error)
}

type AuctionHandler struct {
	service     AuctionServiceInterface
	lockTimeout time.Duration
}

// NewAuctionHandler builds the handler. lockTimeout bounds how long a write waits for its auction; zero means no bound.
func NewAuctionHandler(service AuctionServiceInterface, lockTimeout time.Duration) *AuctionHandler {
	return &AuctionHandler{service: service, lockTimeout: lockTimeout}
}

func (h *AuctionHandler) writeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.lockTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.lockTimeout)
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(req.ToModel())
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"owner_id": req.OwnerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"owner_id":   auction.OwnerID,
		"status":     auction.Status,
	})
}

// ListAuctionsHandler handles GET /auctions?status=
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	status := c.Query("status")
	auctions, err := h.service.ListAuctions(status)
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, map[string]any{"status_filter": status})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"status_filter": status,
		"count":         len(auctions),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction retrieved successfully")
}

// DeleteAuctionHandler handles DELETE /auctions/:auction_id?requester_id=
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	requesterID := c.Query("requester_id")

	ctx, cancel := h.writeContext(c)
	defer cancel()

	if err := h.service.DeleteAuction(ctx, auctionID, requesterID); err != nil {
		helpers.RespondError(c, "DeleteAuctionHandler", err, map[string]any{
			"auction_id":   auctionID,
			"requester_id": requesterID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"auction_id": auctionID}, "auction deleted successfully")
	helpers.LogSuccess("DeleteAuctionHandler", "auction deleted successfully", map[string]any{
		"auction_id":   auctionID,
		"requester_id": requesterID,
	})
}

// SetStatusHandler handles PATCH /auctions/:auction_id/status
func (h *AuctionHandler) SetStatusHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SetStatusHandler", err)
		return
	}

	ctx, cancel := h.writeContext(c)
	defer cancel()

	auction, err := h.service.SetStatus(ctx, auctionID, model.Status(req.Status), req.RequesterID)
	if err != nil {
		helpers.RespondError(c, "SetStatusHandler", err, map[string]any{
			"auction_id":   auctionID,
			"target":       req.Status,
			"requester_id": req.RequesterID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction status updated successfully")
	helpers.LogSuccess("SetStatusHandler", "auction status updated successfully", map[string]any{
		"auction_id": auctionID,
		"status":     auction.Status,
		"version":    auction.Version,
	})
}

// PlaceBidHandler handles POST /bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	ctx, cancel := h.writeContext(c)
	defer cancel()

	result, err := h.service.PlaceBid(ctx, req.AuctionID, req.BidderID, req.Amount)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount.String(),
		})
		return
	}

	resp := helpers.NewBidResultResponse(result)
	if !result.Accepted {
		utils.JSONResponse(c, http.StatusConflict, resp, "bid rejected: "+string(result.Reason))
		utils.Info("PlaceBidHandler: bid rejected", map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount.String(),
			"reason":     result.Reason,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     result.Bid.BidID,
		"auction_id": req.AuctionID,
		"bidder_id":  req.BidderID,
		"amount":     result.Bid.Amount.String(),
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		helpers.RespondError(c, "GetBidsByAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// GetHighestBidHandler handles GET /auctions/:auction_id/highest
func (h *AuctionHandler) GetHighestBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetHighestBid(auctionID)
	if err != nil {
		helpers.RespondError(c, "GetHighestBidHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "highest bid retrieved successfully")
	helpers.LogSuccess("GetHighestBidHandler", "highest bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// GetBidsByUserHandler handles GET /users/:user_id/bids
func (h *AuctionHandler) GetBidsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	bids, err := h.service.GetBidsByUser(userID)
	if err != nil && !errors.Is(err, auctionerrors.ErrUserNoBids) {
		helpers.RespondError(c, "GetBidsByUserHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByUserHandler", "bids retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(bids),
	})
}

// SweepHandler handles POST /admin/sweep with an optional {"now": ...} body
func (h *AuctionHandler) SweepHandler(c *gin.Context) {
	var req helpers.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.HandleBindError(c, "SweepHandler", err)
			return
		}
	}

	var now time.Time
	if req.Now != nil {
		now = *req.Now
	}

	result, err := h.service.SweepExpired(c.Request.Context(), now)
	if err != nil {
		helpers.RespondError(c, "SweepHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, result, "sweep completed")
	helpers.LogSuccess("SweepHandler", "sweep completed", map[string]any{
		"started": result.Started,
		"ended":   result.Ended,
	})
}

// StreamAuctionHandler handles GET /auctions/:auction_id/events as server-sent events.
// The stream closes when the auction ends or the client goes away.
func (h *AuctionHandler) StreamAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	updates, cancel, err := h.service.Subscribe(auctionID)
	if err != nil {
		helpers.RespondError(c, "StreamAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	defer cancel()

	current, err := h.service.GetAuction(auctionID)
	if err != nil {
		helpers.RespondError(c, "StreamAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("auction", helpers.NewAuctionResponse(current))
	c.Writer.Flush()
	if current.Status == model.StatusEnded {
		return
	}

	sent := 1
	defer func() {
		helpers.LogSuccess("StreamAuctionHandler", "stream closed", map[string]any{
			"auction_id": auctionID,
			"events":     sent,
		})
	}()

	lastVersion := current.Version
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if snap.Version <= lastVersion {
				continue
			}
			lastVersion = snap.Version
			c.SSEvent("auction", helpers.NewAuctionResponse(snap))
			c.Writer.Flush()
			sent++
			if snap.Status == model.StatusEnded {
				return
			}
		}
	}
}

// HealthHandler handles GET /health
func (h *AuctionHandler) HealthHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "service healthy")
}
