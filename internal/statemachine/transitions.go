package statemachine

import model "github.com/Bardakor/Auction-House/internal/models"

// legal lists the allowed target states for each source state. ended is terminal.
var legal = map[model.Status][]model.Status{
	model.StatusPending: {model.StatusLive, model.StatusEnded},
	model.StatusLive:    {model.StatusEnded},
}

// CanTransition reports whether from -> to is a defined lifecycle transition
func CanTransition(from, to model.Status) bool {
	for _, s := range legal[from] {
		if s == to {
			return true
		}
	}
	return false
}
