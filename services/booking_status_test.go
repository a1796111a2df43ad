package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/restaurant-booking/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.BookingStatus
		actor    Actor
		ok       bool
	}{
		{models.StatusPending, models.StatusConfirmed, ActorAdmin, true},
		{models.StatusPending, models.StatusConfirmed, ActorOwner, false},
		{models.StatusPending, models.StatusCancelled, ActorOwner, true},
		{models.StatusPending, models.StatusCancelled, ActorAdmin, true},
		{models.StatusConfirmed, models.StatusCancelled, ActorOwner, true},
		{models.StatusConfirmed, models.StatusCancelled, ActorAdmin, true},
		{models.StatusConfirmed, models.StatusPending, ActorAdmin, false},
		{models.StatusCancelled, models.StatusConfirmed, ActorAdmin, false},
		{models.StatusCancelled, models.StatusPending, ActorAdmin, false},
	}
	for _, tc := range cases {
		err := CanTransition(tc.from, tc.to, tc.actor)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s by %s", tc.from, tc.to, tc.actor)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s by %s", tc.from, tc.to, tc.actor)
		}
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.Equal(t,
		[]models.BookingStatus{models.StatusConfirmed, models.StatusCancelled},
		ValidTransitionsFrom(models.StatusPending, ActorAdmin))
	assert.Equal(t,
		[]models.BookingStatus{models.StatusCancelled},
		ValidTransitionsFrom(models.StatusPending, ActorOwner))
	assert.Empty(t, ValidTransitionsFrom(models.StatusCancelled, ActorAdmin))
}
