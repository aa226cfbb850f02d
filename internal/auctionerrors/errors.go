package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrUserNoBids      = errors.New("user has not placed any bids")
	ErrAuctionHasBids  = errors.New("auction has bids")
	ErrLedgerOrder     = errors.New("bid violates ledger ordering")
	ErrConflict        = errors.New("concurrent modification detected")
)

// business logic errors
var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("requester is not the auction owner")
	ErrUnavailable       = errors.New("auction state unavailable")
)
