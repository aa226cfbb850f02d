package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	"github.com/Bardakor/Auction-House/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrUserNoBids):
		return http.StatusNotFound, "no bids found for user"
	case errors.Is(err, auctionerrors.ErrForbidden):
		return http.StatusForbidden, "operation not permitted"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusConflict, "invalid status transition"
	case errors.Is(err, auctionerrors.ErrAuctionHasBids):
		return http.StatusConflict, "auction already has bids"
	case errors.Is(err, auctionerrors.ErrUnavailable), errors.Is(err, auctionerrors.ErrConflict):
		return http.StatusServiceUnavailable, "auction temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the mapped error and logs it at warn
func RespondError(c *gin.Context, handlerName string, err error, ctx map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	fields := map[string]any{"handler": handlerName, "status": status, "error": err.Error()}
	for k, v := range ctx {
		fields[k] = v
	}
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request failed", fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
