package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	model "github.com/Bardakor/Auction-House/internal/models"
)

// AuctionRegistry defines the auction metadata storage interface
type AuctionRegistry interface {
	CreateAuction(auction model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	ListAuctions(status model.Status) ([]model.Auction, error)
	DueToEnd(now time.Time) ([]string, error)
	DueToStart(now time.Time) ([]string, error)
}

// BidLedger defines the append-only bid storage interface
type BidLedger interface {
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	GetLastBid(auctionID string) (model.Bid, error)
	GetBidsByUser(userID string) ([]model.Bid, error)
}

// Tx stages writes inside Store.Update. Staged writes are checked and applied together on commit.
type Tx interface {
	PutAuction(auction model.Auction, expectedVersion int64)
	AppendBid(bid model.Bid)
	DeleteAuction(auctionID string)
}

// Store is the registry and ledger together with all-or-nothing updates across both
type Store interface {
	AuctionRegistry
	BidLedger
	Update(fn func(tx Tx) error) error
}

// MemoryRepo is a concurrency-safe in-memory implementation of Store
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID -> value: auction
	bids     map[string][]model.Bid   // key: auctionID -> value: ledger in acceptance order
	userBids map[string][]model.Bid   // key: userID -> value: bids in acceptance order
	ending   *deadlineIndex           // live auctions keyed by ends_at
	starting *deadlineIndex           // pending auctions with an auto-start time keyed by starts_at
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
		userBids: make(map[string][]model.Bid),
		ending:   newDeadlineIndex(),
		starting: newDeadlineIndex(),
	}
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w - empty auction ID", auctionerrors.ErrValidation)
	}
	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: already exists: %w", auction.AuctionID, auctionerrors.ErrConflict)
	}

	r.auctions[auction.AuctionID] = auction
	r.reindex(auction)
	return nil
}

// GetAuction returns the latest snapshot of an auction
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctions returns auctions newest first. An empty status returns every auction.
func (r *MemoryRepo) ListAuctions(status model.Status) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		if status == "" || a.Status == status {
			auctions = append(auctions, a)
		}
	}

	sort.Slice(auctions, func(i, j int) bool {
		if !auctions[i].CreatedAt.Equal(auctions[j].CreatedAt) {
			return auctions[i].CreatedAt.After(auctions[j].CreatedAt)
		}
		return auctions[i].AuctionID < auctions[j].AuctionID
	})
	return auctions, nil
}

// DueToEnd returns the IDs of live auctions whose ends_at is at or before now, earliest first
func (r *MemoryRepo) DueToEnd(now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ending.due(now), nil
}

// DueToStart returns the IDs of pending auctions whose starts_at is at or before now, earliest first
func (r *MemoryRepo) DueToStart(now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.starting.due(now), nil
}

// GetBidsByAuction returns an auction's ledger in acceptance order
func (r *MemoryRepo) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	bids := r.bids[auctionID]
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// GetLastBid returns the tail of an auction's ledger, which is always its highest bid
func (r *MemoryRepo) GetLastBid(auctionID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return model.Bid{}, fmt.Errorf("get last bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	bids := r.bids[auctionID]
	if len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get last bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return bids[len(bids)-1], nil
}

// GetBidsByUser returns all bids a user has placed, newest first
func (r *MemoryRepo) GetBidsByUser(userID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids := r.userBids[userID]
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}

	out := make([]model.Bid, len(bids))
	for i, b := range bids {
		out[len(bids)-1-i] = b
	}
	return out, nil
}

// Update runs fn with a staging transaction and commits the staged writes atomically.
// If fn fails or any staged write breaks an invariant, nothing is applied.
func (r *MemoryRepo) Update(fn func(tx Tx) error) error {
	tx := &memTx{}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.check(tx.ops); err != nil {
		return err
	}
	r.apply(tx.ops)
	return nil
}

type opKind int

const (
	opPutAuction opKind = iota
	opAppendBid
	opDeleteAuction
)

type txOp struct {
	kind            opKind
	auction         model.Auction
	expectedVersion int64
	bid             model.Bid
	auctionID       string
}

type memTx struct {
	ops []txOp
}

func (t *memTx) PutAuction(auction model.Auction, expectedVersion int64) {
	t.ops = append(t.ops, txOp{kind: opPutAuction, auction: auction, expectedVersion: expectedVersion})
}

func (t *memTx) AppendBid(bid model.Bid) {
	t.ops = append(t.ops, txOp{kind: opAppendBid, bid: bid})
}

func (t *memTx) DeleteAuction(auctionID string) {
	t.ops = append(t.ops, txOp{kind: opDeleteAuction, auctionID: auctionID})
}

// check replays ops over an overlay of the current state without mutating it.
// Must be called with r.mu held.
func (r *MemoryRepo) check(ops []txOp) error {
	auctions := make(map[string]model.Auction)
	tails := make(map[string]model.Bid)
	appended := make(map[string]bool)
	deleted := make(map[string]bool)

	lookup := func(id string) (model.Auction, bool) {
		if deleted[id] {
			return model.Auction{}, false
		}
		if a, ok := auctions[id]; ok {
			return a, true
		}
		a, ok := r.auctions[id]
		return a, ok
	}
	tail := func(id string) (model.Bid, bool) {
		if b, ok := tails[id]; ok {
			return b, true
		}
		bids := r.bids[id]
		if len(bids) == 0 {
			return model.Bid{}, false
		}
		return bids[len(bids)-1], true
	}

	for _, op := range ops {
		switch op.kind {
		case opPutAuction:
			id := op.auction.AuctionID
			cur, ok := lookup(id)
			if !ok {
				return fmt.Errorf("put auction %s: %w", id, auctionerrors.ErrAuctionNotFound)
			}
			if cur.Version != op.expectedVersion || op.auction.Version != op.expectedVersion+1 {
				return fmt.Errorf("put auction %s: stored version %d, expected %d: %w",
					id, cur.Version, op.expectedVersion, auctionerrors.ErrConflict)
			}
			auctions[id] = op.auction

		case opAppendBid:
			id := op.bid.AuctionID
			a, ok := lookup(id)
			if !ok {
				return fmt.Errorf("append bid %s: %w", op.bid.BidID, auctionerrors.ErrAuctionNotFound)
			}
			floor := a.StartingPrice
			if last, ok := tail(id); ok {
				floor = last.Amount
				if op.bid.CreatedAt.Before(last.CreatedAt) {
					return fmt.Errorf("append bid %s: timestamp precedes ledger tail: %w", op.bid.BidID, auctionerrors.ErrLedgerOrder)
				}
			}
			if !op.bid.Amount.GreaterThan(floor) {
				return fmt.Errorf("append bid %s: amount %s does not exceed %s: %w",
					op.bid.BidID, op.bid.Amount, floor, auctionerrors.ErrLedgerOrder)
			}
			tails[id] = op.bid
			appended[id] = true

		case opDeleteAuction:
			if _, ok := lookup(op.auctionID); !ok {
				return fmt.Errorf("delete auction %s: %w", op.auctionID, auctionerrors.ErrAuctionNotFound)
			}
			if _, ok := tail(op.auctionID); ok {
				return fmt.Errorf("delete auction %s: %w", op.auctionID, auctionerrors.ErrAuctionHasBids)
			}
			deleted[op.auctionID] = true
			delete(auctions, op.auctionID)
		}
	}

	// the highest bid in the ledger must equal the auction's current price
	for id := range appended {
		a, ok := lookup(id)
		if !ok {
			continue
		}
		if last := tails[id]; !a.CurrentPrice.Equal(last.Amount) {
			return fmt.Errorf("auction %s: current price %s does not match ledger tail %s: %w",
				id, a.CurrentPrice, last.Amount, auctionerrors.ErrLedgerOrder)
		}
	}
	return nil
}

// apply writes already checked ops. Must be called with r.mu held.
func (r *MemoryRepo) apply(ops []txOp) {
	for _, op := range ops {
		switch op.kind {
		case opPutAuction:
			r.auctions[op.auction.AuctionID] = op.auction
			r.reindex(op.auction)
		case opAppendBid:
			r.bids[op.bid.AuctionID] = append(r.bids[op.bid.AuctionID], op.bid)
			r.userBids[op.bid.BidderID] = append(r.userBids[op.bid.BidderID], op.bid)
		case opDeleteAuction:
			delete(r.auctions, op.auctionID)
			delete(r.bids, op.auctionID)
			r.ending.remove(op.auctionID)
			r.starting.remove(op.auctionID)
		}
	}
}

// reindex keeps the deadline indices in line with an auction's status
func (r *MemoryRepo) reindex(a model.Auction) {
	if a.Status == model.StatusLive {
		r.ending.set(a.AuctionID, a.EndsAt)
	} else {
		r.ending.remove(a.AuctionID)
	}

	if a.Status == model.StatusPending && a.HasAutoStart() {
		r.starting.set(a.AuctionID, a.StartsAt)
	} else {
		r.starting.remove(a.AuctionID)
	}
}
