package cli

import (
	"fmt"
	"time"

	auction "github.com/Bardakor/Auction-House/internal/auctionService"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/utils"

	"github.com/shopspring/decimal"
)

// seedDemo adds sample auctions so a fresh server has something to bid on
func seedDemo(svc *auction.AuctionService) error {
	ends := time.Now().UTC().Add(24 * time.Hour)
	samples := []model.NewAuction{
		{OwnerID: "seller1", Title: "title1", Description: "description1", StartingPrice: decimal.NewFromInt(100), EndsAt: ends},
		{OwnerID: "seller1", Title: "title2", Description: "description2", StartingPrice: decimal.NewFromInt(200), EndsAt: ends},
		{OwnerID: "seller2", Title: "title3", Description: "description3", StartingPrice: decimal.RequireFromString("150.50"), EndsAt: ends},
	}

	for _, in := range samples {
		a, err := svc.CreateAuction(in)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		utils.Debug("seed: auction created", map[string]any{"auction_id": a.AuctionID, "title": a.Title})
	}
	return nil
}
