package booking

import (
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// RESCHEDULED is a valid status with no inbound edge.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCancelled},
}

// Transition validates a status change against the lifecycle table.
func Transition(from, to model.Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
