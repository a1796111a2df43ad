package services

import (
	"fmt"

	"github.com/yeremiapane/restaurant-booking/models"
)

// Actor is who asks for a status change.
type Actor string

const (
	ActorOwner Actor = "owner"
	ActorAdmin Actor = "admin"
)

type transition struct {
	From  models.BookingStatus
	To    models.BookingStatus
	Actor Actor
}

// Nothing leaves cancelled.
var validTransitions = []transition{
	{From: models.StatusPending, To: models.StatusConfirmed, Actor: ActorAdmin},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorOwner},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorOwner},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorAdmin},
}

var transitionSet = func() map[transition]bool {
	m := make(map[transition]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// ValidTransitionsFrom returns the statuses the actor may move a booking to.
func ValidTransitionsFrom(from models.BookingStatus, actor Actor) []models.BookingStatus {
	var next []models.BookingStatus
	for _, t := range validTransitions {
		if t.From == from && t.Actor == actor {
			next = append(next, t.To)
		}
	}
	return next
}

// CanTransition checks a real change. Asking for the current status is not a
// transition; callers treat it as a no-op before getting here.
func CanTransition(from, to models.BookingStatus, actor Actor) error {
	if transitionSet[transition{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s is not allowed for %s", ErrInvalidTransition, from, to, actor)
}
