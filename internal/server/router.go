package server

import (
	"time"

	auction "github.com/Bardakor/Auction-House/internal/auctionService"
	handler "github.com/Bardakor/Auction-House/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application.
// lockTimeout bounds how long a write request waits for its auction.
func SetupRouter(auctionService *auction.AuctionService, lockTimeout time.Duration) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery()) // recover from panics
	router.Use(RequestIDMiddleware)
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService, lockTimeout)

	router.GET("/health", auctionHandler.HealthHandler)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.DELETE("/:auction_id", auctionHandler.DeleteAuctionHandler)
		auctions.PATCH("/:auction_id/status", auctionHandler.SetStatusHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/highest", auctionHandler.GetHighestBidHandler)
		auctions.GET("/:auction_id/events", auctionHandler.StreamAuctionHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("", auctionHandler.PlaceBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/bids", auctionHandler.GetBidsByUserHandler)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/sweep", auctionHandler.SweepHandler)
	}

	return router
}
