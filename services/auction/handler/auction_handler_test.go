package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/sweeper"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// decimalEq matches a decimal by value rather than by representation
type decimalEq struct{ want decimal.Decimal }

func (m decimalEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalEq) String() string { return "is equal to " + m.want.String() }

func dec(s string) gomock.Matcher { return decimalEq{want: decimal.RequireFromString(s)} }

func newTestRouter(t *testing.T) (*MockAuctionServiceInterface, *gin.Engine) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockService := NewMockAuctionServiceInterface(ctrl)
	handler := NewAuctionHandler(mockService, time.Second)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auctions", handler.CreateAuctionHandler)
	router.GET("/auctions", handler.ListAuctionsHandler)
	router.GET("/auctions/:auction_id", handler.GetAuctionHandler)
	router.DELETE("/auctions/:auction_id", handler.DeleteAuctionHandler)
	router.PATCH("/auctions/:auction_id/status", handler.SetStatusHandler)
	router.GET("/auctions/:auction_id/bids", handler.GetBidsByAuctionHandler)
	router.GET("/auctions/:auction_id/highest", handler.GetHighestBidHandler)
	router.GET("/auctions/:auction_id/events", handler.StreamAuctionHandler)
	router.POST("/bids", handler.PlaceBidHandler)
	router.GET("/users/:user_id/bids", handler.GetBidsByUserHandler)
	router.POST("/admin/sweep", handler.SweepHandler)
	router.GET("/health", handler.HealthHandler)
	return mockService, router
}

func doRequest(t *testing.T, router *gin.Engine, method, url string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func sampleAuction(status model.Status) model.Auction {
	return model.Auction{
		AuctionID:     "a1",
		OwnerID:       "owner",
		Title:         "Camera",
		Description:   "Vintage",
		StartingPrice: decimal.NewFromInt(10),
		CurrentPrice:  decimal.NewFromInt(10),
		EndsAt:        now.Add(time.Hour),
		Status:        status,
		CreatedAt:     now,
	}
}

func TestPlaceBidHandler(t *testing.T) {
	t.Parallel()

	bid := model.Bid{BidID: uuid.NewString(), AuctionID: "a1", BidderID: "user1", Amount: decimal.NewFromInt(15), CreatedAt: now}
	after := sampleAuction(model.StatusLive)
	after.CurrentPrice = bid.Amount
	after.Version = 1

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success_valid_bid",
			requestBody: `{"auction_id":"a1","bidder_id":"user1","amount":"15"}`,
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", "user1", dec("15")).
					Return(model.BidResult{Accepted: true, Bid: &bid, Auction: after}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid recorded successfully",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, true, data["accepted"])
				b := data["bid"].(map[string]any)
				_, parseErr := uuid.Parse(b["bid_id"].(string))
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, "15.00", b["amount"])
				require.Equal(t, "15.00", data["auction"].(map[string]any)["current_price"])
			},
		},
		{
			name:        "numeric_amount",
			requestBody: `{"auction_id":"a1","bidder_id":"user1","amount":15.5}`,
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", "user1", dec("15.5")).
					Return(model.BidResult{Accepted: true, Bid: &bid, Auction: after}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid recorded successfully",
		},
		{
			name:        "rejected_too_low",
			requestBody: `{"auction_id":"a1","bidder_id":"user1","amount":"5"}`,
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", "user1", dec("5")).
					Return(model.BidResult{Reason: model.RejectedTooLow, Auction: sampleAuction(model.StatusLive)}, nil)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid rejected: too_low",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, false, data["accepted"])
				require.Equal(t, "too_low", data["reason"])
				require.Nil(t, data["bid"])
			},
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_auction_id",
			requestBody:    `{"bidder_id":"user1","amount":"15"}`,
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_bidder_id",
			requestBody:    `{"auction_id":"a1","amount":"15"}`,
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "service_validation_error",
			requestBody: `{"auction_id":"a1","bidder_id":"user1","amount":"-1"}`,
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", "user1", dec("-1")).
					Return(model.BidResult{}, fmt.Errorf("coordinator: %w", auctionerrors.ErrValidation))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request",
		},
		{
			name:        "auction_not_found",
			requestBody: `{"auction_id":"nope","bidder_id":"user1","amount":"15"}`,
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "nope", "user1", dec("15")).
					Return(model.BidResult{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:        "unavailable",
			requestBody: `{"auction_id":"a1","bidder_id":"user1","amount":"15"}`,
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", "user1", dec("15")).
					Return(model.BidResult{}, fmt.Errorf("lock: %w: %w", auctionerrors.ErrUnavailable, context.DeadlineExceeded))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "auction temporarily unavailable",
		},
		{
			name:        "service_generic_error",
			requestBody: `{"auction_id":"a1","bidder_id":"user1","amount":"15"}`,
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", "user1", dec("15")).
					Return(model.BidResult{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService, router := newTestRouter(t)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, router, http.MethodPost, "/bids", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}

func TestCreateAuctionHandler(t *testing.T) {
	t.Parallel()

	endsAt := now.Add(time.Hour)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "success",
			requestBody: map[string]any{
				"owner_id": "owner", "title": "Camera", "description": "Vintage",
				"starting_price": "10.50", "ends_at": endsAt.Format(time.RFC3339),
			},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any()).DoAndReturn(func(in model.NewAuction) (model.Auction, error) {
					require.Equal(t, "owner", in.OwnerID)
					require.True(t, decimal.RequireFromString("10.5").Equal(in.StartingPrice))
					require.True(t, in.StartsAt.IsZero())
					require.True(t, endsAt.Equal(in.EndsAt))
					return sampleAuction(model.StatusLive), nil
				})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name: "with_starts_at",
			requestBody: map[string]any{
				"owner_id": "owner", "title": "Camera", "description": "Vintage",
				"starting_price": 10, "starts_at": now.Add(time.Minute).Format(time.RFC3339), "ends_at": endsAt.Format(time.RFC3339),
			},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any()).DoAndReturn(func(in model.NewAuction) (model.Auction, error) {
					require.True(t, now.Add(time.Minute).Equal(in.StartsAt))
					return sampleAuction(model.StatusPending), nil
				})
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "missing_title",
			requestBody:    map[string]any{"owner_id": "owner", "description": "Vintage", "starting_price": "10"},
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "service_validation_error",
			requestBody: map[string]any{
				"owner_id": "owner", "title": "Camera", "description": "Vintage", "starting_price": "0",
			},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any()).Return(model.Auction{}, auctionerrors.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService, router := newTestRouter(t)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, router, http.MethodPost, "/auctions", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
		})
	}
}

func TestSetStatusHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "end_auction",
			requestBody: statusBody("ended", "owner"),
			mockSetup: func(m *MockAuctionServiceInterface) {
				ended := sampleAuction(model.StatusEnded)
				ended.Version = 1
				m.EXPECT().SetStatus(gomock.Any(), "a1", model.StatusEnded, "owner").Return(ended, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction status updated successfully",
		},
		{
			name:           "unknown_status",
			requestBody:    statusBody("paused", "owner"),
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "not_owner",
			requestBody: statusBody("ended", "intruder"),
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().SetStatus(gomock.Any(), "a1", model.StatusEnded, "intruder").
					Return(model.Auction{}, auctionerrors.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "operation not permitted",
		},
		{
			name:        "illegal_transition",
			requestBody: statusBody("pending", "owner"),
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().SetStatus(gomock.Any(), "a1", model.StatusPending, "owner").
					Return(model.Auction{}, auctionerrors.ErrInvalidTransition)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "invalid status transition",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService, router := newTestRouter(t)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, router, http.MethodPatch, "/auctions/a1/status", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
		})
	}
}

func statusBody(status, requester string) map[string]string {
	return map[string]string{"status": status, "requester_id": requester}
}

func TestDeleteAuctionHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		url            string
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
	}{
		{
			name: "deleted",
			url:  "/auctions/a1?requester_id=owner",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().DeleteAuction(gomock.Any(), "a1", "owner").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "has_bids",
			url:  "/auctions/a1?requester_id=owner",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().DeleteAuction(gomock.Any(), "a1", "owner").Return(auctionerrors.ErrAuctionHasBids)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "missing_requester",
			url:  "/auctions/a1",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().DeleteAuction(gomock.Any(), "a1", "").Return(auctionerrors.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService, router := newTestRouter(t)
			tc.mockSetup(mockService)

			w, _ := doRequest(t, router, http.MethodDelete, tc.url, nil)
			require.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestGetBidsByAuctionHandler(t *testing.T) {
	t.Parallel()

	bids := []model.Bid{
		{BidID: "b2", AuctionID: "a1", BidderID: "u2", Amount: decimal.NewFromInt(20), CreatedAt: now},
		{BidID: "b1", AuctionID: "a1", BidderID: "u1", Amount: decimal.NewFromInt(15), CreatedAt: now},
	}

	tests := []struct {
		name           string
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "with_bids",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().GetBidsForAuction("a1").Return(bids, nil)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name: "no_bids",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().GetBidsForAuction("a1").Return(nil, auctionerrors.ErrNoBids)
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
		{
			name: "auction_not_found",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().GetBidsForAuction("a1").Return(nil, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService, router := newTestRouter(t)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/bids", nil)
			require.Equal(t, tc.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				data, _ := resp["data"].([]any)
				require.Len(t, data, tc.expectedCount)
				if tc.expectedCount > 0 {
					require.Equal(t, "20.00", data[0].(map[string]any)["amount"])
				}
			}
		})
	}
}

func TestGetHighestBidHandler(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().GetHighestBid("a1").
			Return(model.Bid{BidID: "b1", AuctionID: "a1", BidderID: "u1", Amount: decimal.NewFromInt(20), CreatedAt: now}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/highest", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "u1", resp["data"].(map[string]any)["bidder_id"])
	})

	t.Run("no_bids", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().GetHighestBid("a1").Return(model.Bid{}, auctionerrors.ErrNoBids)

		w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/highest", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Contains(t, resp["message"], "no bids found")
	})
}

func TestGetBidsByUserHandler(t *testing.T) {
	t.Parallel()

	t.Run("with_bids", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().GetBidsByUser("u1").
			Return([]model.Bid{{BidID: "b1", AuctionID: "a1", BidderID: "u1", Amount: decimal.NewFromInt(20), CreatedAt: now}}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/users/u1/bids", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, resp["data"], 1)
	})

	t.Run("no_bids", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().GetBidsByUser("u1").Return(nil, auctionerrors.ErrUserNoBids)

		w, resp := doRequest(t, router, http.MethodGet, "/users/u1/bids", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, resp["data"])
	})
}

func TestListAuctionsHandler(t *testing.T) {
	t.Parallel()

	t.Run("filtered", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().ListAuctions("live").Return([]model.Auction{sampleAuction(model.StatusLive)}, nil)

		w, resp := doRequest(t, router, http.MethodGet, "/auctions?status=live", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].([]any)
		require.Len(t, data, 1)
		require.Equal(t, "live", data[0].(map[string]any)["status"])
	})

	t.Run("bad_filter", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().ListAuctions("paused").Return(nil, auctionerrors.ErrValidation)

		w, _ := doRequest(t, router, http.MethodGet, "/auctions?status=paused", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAuctionHandler(t *testing.T) {
	t.Parallel()

	mockService, router := newTestRouter(t)
	mockService.EXPECT().GetAuction("a1").Return(sampleAuction(model.StatusLive), nil)
	mockService.EXPECT().GetAuction("missing").Return(model.Auction{}, auctionerrors.ErrAuctionNotFound)

	w, resp := doRequest(t, router, http.MethodGet, "/auctions/a1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, "10.00", data["current_price"])
	require.NotContains(t, data, "starts_at")

	w, _ = doRequest(t, router, http.MethodGet, "/auctions/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSweepHandler(t *testing.T) {
	t.Parallel()

	t.Run("service_clock", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().SweepExpired(gomock.Any(), time.Time{}).Return(sweeper.Result{Started: 1, Ended: 2}, nil)

		w, resp := doRequest(t, router, http.MethodPost, "/admin/sweep", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, 1.0, data["started"])
		require.Equal(t, 2.0, data["ended"])
	})

	t.Run("explicit_now", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().SweepExpired(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, at time.Time) (sweeper.Result, error) {
				require.True(t, now.Equal(at))
				return sweeper.Result{}, nil
			})

		w, _ := doRequest(t, router, http.MethodPost, "/admin/sweep", map[string]string{"now": now.Format(time.RFC3339)})
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registry_unavailable", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().SweepExpired(gomock.Any(), time.Time{}).Return(sweeper.Result{}, auctionerrors.ErrUnavailable)

		w, _ := doRequest(t, router, http.MethodPost, "/admin/sweep", nil)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestStreamAuctionHandler(t *testing.T) {
	t.Parallel()

	t.Run("streams_until_ended", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)

		updates := make(chan model.Auction, 3)
		stale := sampleAuction(model.StatusLive)
		bid := sampleAuction(model.StatusLive)
		bid.Version = 1
		bid.CurrentPrice = decimal.NewFromInt(12)
		ended := bid
		ended.Version = 2
		ended.Status = model.StatusEnded
		updates <- stale
		updates <- bid
		updates <- ended

		cancelled := false
		mockService.EXPECT().Subscribe("a1").Return((<-chan model.Auction)(updates), func() { cancelled = true }, nil)
		mockService.EXPECT().GetAuction("a1").Return(sampleAuction(model.StatusLive), nil)

		w, _ := doRequest(t, router, http.MethodGet, "/auctions/a1/events", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		require.Equal(t, 3, strings.Count(body, "event:auction"), "initial snapshot plus two newer versions")
		require.Contains(t, body, `"current_price":"12.00"`)
		require.Contains(t, body, `"status":"ended"`)
		require.True(t, cancelled)
	})

	t.Run("unknown_auction", func(t *testing.T) {
		t.Parallel()
		mockService, router := newTestRouter(t)
		mockService.EXPECT().Subscribe("missing").Return(nil, nil, auctionerrors.ErrAuctionNotFound)

		w, _ := doRequest(t, router, http.MethodGet, "/auctions/missing/events", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	_, router := newTestRouter(t)
	w, resp := doRequest(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", resp["data"].(map[string]any)["status"])
}
