package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Bardakor/Auction-House/internal/auctionerrors"
	"github.com/Bardakor/Auction-House/internal/coordinator"
	model "github.com/Bardakor/Auction-House/internal/models"
	"github.com/Bardakor/Auction-House/internal/repository"
	"github.com/Bardakor/Auction-House/internal/statemachine"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func auction(id string, status model.Status, endsIn time.Duration) model.Auction {
	return model.Auction{
		AuctionID:     id,
		OwnerID:       "owner",
		Title:         "title",
		Description:   "description",
		StartingPrice: decimal.NewFromInt(10),
		CurrentPrice:  decimal.NewFromInt(10),
		EndsAt:        t0.Add(endsIn),
		Status:        status,
		CreatedAt:     t0,
	}
}

func TestSweeper_Sweep(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(auction("due1", model.StatusLive, time.Hour)))
	require.NoError(t, repo.CreateAuction(auction("due2", model.StatusLive, 2*time.Hour)))
	require.NoError(t, repo.CreateAuction(auction("future", model.StatusLive, 5*time.Hour)))
	require.NoError(t, repo.CreateAuction(auction("manual", model.StatusPending, time.Hour)))

	scheduled := auction("scheduled", model.StatusPending, 4*time.Hour)
	scheduled.StartsAt = t0.Add(time.Hour)
	require.NoError(t, repo.CreateAuction(scheduled))

	s := NewSweeper(repo, statemachine.New(repo), 2)
	now := t0.Add(2 * time.Hour)

	res, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, Result{Started: 1, Ended: 2}, res)

	res, err = s.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, Result{}, res, "second pass with the same now is a no-op")

	for id, want := range map[string]model.Status{
		"due1":      model.StatusEnded,
		"due2":      model.StatusEnded,
		"future":    model.StatusLive,
		"manual":    model.StatusPending,
		"scheduled": model.StatusLive,
	} {
		a, err := repo.GetAuction(id)
		require.NoError(t, err)
		require.Equal(t, want, a.Status, id)
	}
}

func TestSweeper_Sweep_ManyAuctions(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepo()
	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, repo.CreateAuction(auction(fmt.Sprintf("a-%d", i), model.StatusLive, time.Duration(i)*time.Minute)))
	}

	s := NewSweeper(repo, statemachine.New(repo), 0)
	res, err := s.Sweep(context.Background(), t0.Add(99*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 100, res.Ended)

	live, err := repo.ListAuctions(model.StatusLive)
	require.NoError(t, err)
	require.Len(t, live, n-100)
}

// a sweep racing the lazy bid path transitions each auction exactly once
func TestSweeper_Sweep_RacesLazyTransition(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(auction("a1", model.StatusLive, time.Hour)))

	now := t0.Add(2 * time.Hour)
	machine := statemachine.New(repo, statemachine.WithClock(func() time.Time { return now }))
	c := coordinator.NewCoordinator(machine, -1)
	s := NewSweeper(repo, machine, 4)

	var wg sync.WaitGroup
	var res Result
	var sweepErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		res, sweepErr = s.Sweep(context.Background(), now)
	}()
	go func() {
		defer wg.Done()
		bid, err := c.SubmitBid(context.Background(), "a1", "bidder", decimal.NewFromInt(20))
		require.NoError(t, err)
		require.False(t, bid.Accepted)
	}()
	wg.Wait()

	require.NoError(t, sweepErr)
	require.LessOrEqual(t, res.Ended, 1)

	a, err := repo.GetAuction("a1")
	require.NoError(t, err)
	require.Equal(t, model.StatusEnded, a.Status)
	require.Equal(t, int64(1), a.Version, "ended exactly once")
}

func TestSweeper_Sweep_RegistryFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := repository.NewMockAuctionRegistry(ctrl)
	mockRegistry.EXPECT().DueToStart(gomock.Any()).Return(nil, nil)
	mockRegistry.EXPECT().DueToEnd(gomock.Any()).Return(nil, errors.New("index offline"))

	s := NewSweeper(mockRegistry, statemachine.New(repository.NewMemoryRepo()), 1)
	_, err := s.Sweep(context.Background(), t0)
	require.ErrorIs(t, err, auctionerrors.ErrUnavailable)
}

func TestSweeper_Sweep_SkipsDeleted(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// the registry lists an auction the state machine's store no longer has
	mockRegistry := repository.NewMockAuctionRegistry(ctrl)
	mockRegistry.EXPECT().DueToStart(gomock.Any()).Return(nil, nil)
	mockRegistry.EXPECT().DueToEnd(gomock.Any()).Return([]string{"gone"}, nil)

	s := NewSweeper(mockRegistry, statemachine.New(repository.NewMemoryRepo()), 1)
	res, err := s.Sweep(context.Background(), t0)
	require.NoError(t, err)
	require.Equal(t, Result{}, res)
}

func TestSweeper_Run(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(auction("a1", model.StatusLive, time.Hour)))
	machine := statemachine.New(repo, statemachine.WithClock(func() time.Time { return t0.Add(2 * time.Hour) }))
	s := NewSweeper(repo, machine, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		a, err := repo.GetAuction("a1")
		return err == nil && a.Status == model.StatusEnded
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
