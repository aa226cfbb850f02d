package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "github.com/Bardakor/Auction-House/internal/auctionService"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/repository"
	"github.com/Bardakor/Auction-House/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testLockTimeout = 2 * time.Second

// SetupTestRouter initializes the router with in-memory repository for integration testing.
func SetupTestRouter() (*gin.Engine, *auction.AuctionService) {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	service := auction.NewAuctionService(repo, auction.DefaultOptions())
	router := server.SetupRouter(service, testLockTimeout)
	return router, service
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// Data returns the envelope's data object
func Data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return data
}

// SeedAuction creates an auction through the service and returns its id
func SeedAuction(t *testing.T, service *auction.AuctionService, ownerID, startingPrice string, endsAt time.Time) string {
	t.Helper()
	a, err := service.CreateAuction(model.NewAuction{
		OwnerID:       ownerID,
		Title:         "title",
		Description:   "description",
		StartingPrice: decimal.RequireFromString(startingPrice),
		EndsAt:        endsAt,
	})
	require.NoError(t, err)
	return a.AuctionID
}

// Bid builds a POST /bids body
func Bid(auctionID, bidderID, amount string) map[string]string {
	return map[string]string{"auction_id": auctionID, "bidder_id": bidderID, "amount": amount}
}
