package orders

import (
	"fmt"
	"slices"

	"storefront-service/internal/apperr"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusConfirmed       Status = "confirmed"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
	StatusReturnInitiated Status = "return_initiated"
	StatusReturned        Status = "returned"
)

// transitions lists the legal edges of the order state machine.
var transitions = map[Status][]Status{
	StatusPending:         {StatusConfirmed},
	StatusConfirmed:       {StatusDelivered, StatusCancelled},
	StatusDelivered:       {StatusReturnInitiated},
	StatusReturnInitiated: {StatusReturned},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", apperr.ErrValidation, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled, StatusReturnInitiated, StatusReturned:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusReturned
}

func (s Status) CanTransition(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// Transition returns an ErrInvalidTransition error when from -> to is not an edge.
func Transition(from, to Status) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: cannot move order from %s to %s", apperr.ErrInvalidTransition, from, to)
	}
	return nil
}
