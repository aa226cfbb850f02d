// Package sweeper moves auctions through their time-driven lifecycle transitions.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/repository"
	"github.com/Bardakor/Auction-House/internal/statemachine"
	"github.com/Bardakor/Auction-House/utils"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds how many auctions one pass works on at once
const DefaultParallelism = 8

// Result counts the transitions made by one pass
type Result struct {
	Started int `json:"started"`
	Ended   int `json:"ended"`
}

// Sweeper scans the registry for due auctions and transitions each through the state machine
type Sweeper struct {
	registry    repository.AuctionRegistry
	machine     *statemachine.Machine
	parallelism int
}

// NewSweeper creates a Sweeper. A non-positive parallelism uses the default.
func NewSweeper(registry repository.AuctionRegistry, machine *statemachine.Machine, parallelism int) *Sweeper {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Sweeper{registry: registry, machine: machine, parallelism: parallelism}
}

// Sweep ends live auctions whose ends_at <= now and starts pending auctions whose starts_at <= now.
// Every due auction is attempted even if some fail; the first failure is returned with the partial counts.
// Running it again with the same now transitions nothing new.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	toStart, err := s.registry.DueToStart(now)
	if err != nil {
		return Result{}, fmt.Errorf("sweeper: scan pending auctions: %w: %w", auctionerrors.ErrUnavailable, err)
	}
	toEnd, err := s.registry.DueToEnd(now)
	if err != nil {
		return Result{}, fmt.Errorf("sweeper: scan live auctions: %w: %w", auctionerrors.ErrUnavailable, err)
	}

	var started, ended atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.parallelism)

	for _, id := range toStart {
		id := id
		g.Go(func() error {
			status, changed, err := s.machine.StartIfDue(ctx, id, now)
			if err != nil {
				return s.skipMissing(id, err)
			}
			if changed {
				if status == model.StatusLive {
					started.Add(1)
				} else {
					ended.Add(1)
				}
			}
			return nil
		})
	}

	for _, id := range toEnd {
		id := id
		g.Go(func() error {
			changed, err := s.machine.EndIfExpired(ctx, id, now)
			if err != nil {
				return s.skipMissing(id, err)
			}
			if changed {
				ended.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	res := Result{Started: int(started.Load()), Ended: int(ended.Load())}
	if err != nil {
		return res, fmt.Errorf("sweeper: %w", err)
	}
	return res, nil
}

// skipMissing ignores auctions deleted between the scan and the transition
func (s *Sweeper) skipMissing(auctionID string, err error) error {
	if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
		return nil
	}
	utils.Error("sweeper: transition failed", map[string]any{
		"auction_id": auctionID,
		"error":      err.Error(),
	})
	return err
}

// Run sweeps every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	utils.Info("sweeper: started", map[string]any{"interval": interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("sweeper: stopped", nil)
			return
		case <-ticker.C:
			res, err := s.Sweep(ctx, s.machine.Now())
			if err != nil && ctx.Err() == nil {
				utils.Warn("sweeper: pass finished with errors", map[string]any{
					"started": res.Started,
					"ended":   res.Ended,
					"error":   err.Error(),
				})
				continue
			}
			if res.Started > 0 || res.Ended > 0 {
				utils.Info("sweeper: pass finished", map[string]any{
					"started": res.Started,
					"ended":   res.Ended,
				})
			}
		}
	}
}
