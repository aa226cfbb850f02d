package repository

import (
	"time"

	"github.com/google/btree"
)

type deadline struct {
	at        time.Time
	auctionID string
}

func deadlineLess(a, b deadline) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.auctionID < b.auctionID
}

// deadlineIndex orders auction IDs by a point in time so the sweeper can scan only what is due
type deadlineIndex struct {
	tree *btree.BTreeG[deadline]
	byID map[string]time.Time
}

func newDeadlineIndex() *deadlineIndex {
	return &deadlineIndex{
		tree: btree.NewG(16, btree.LessFunc[deadline](deadlineLess)),
		byID: make(map[string]time.Time),
	}
}

func (ix *deadlineIndex) set(auctionID string, at time.Time) {
	ix.remove(auctionID)
	ix.tree.ReplaceOrInsert(deadline{at: at, auctionID: auctionID})
	ix.byID[auctionID] = at
}

func (ix *deadlineIndex) remove(auctionID string) {
	at, ok := ix.byID[auctionID]
	if !ok {
		return
	}
	ix.tree.Delete(deadline{at: at, auctionID: auctionID})
	delete(ix.byID, auctionID)
}

// due returns IDs whose deadline is at or before now
func (ix *deadlineIndex) due(now time.Time) []string {
	var ids []string
	ix.tree.Ascend(func(d deadline) bool {
		if d.at.After(now) {
			return false
		}
		ids = append(ids, d.auctionID)
		return true
	})
	return ids
}

func (ix *deadlineIndex) len() int {
	return ix.tree.Len()
}
