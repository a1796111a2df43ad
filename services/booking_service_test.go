package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/models"
	"gorm.io/gorm"
)

func newBookingService(t *testing.T) (*BookingService, *recordingFeed) {
	t.Helper()
	rec := &recordingFeed{}
	svc := NewBookingService(setupTestDB(t), rec)
	svc.Now = clock
	return svc, rec
}

func requireFormError(t *testing.T, err error) *FormError {
	t.Helper()
	fe, ok := AsFormError(err)
	require.True(t, ok, "expected a form error, got %v", err)
	return fe
}

func TestBookingScenarioOnSingleTable(t *testing.T) {
	svc, rec := newBookingService(t)
	ctx := context.Background()
	alice := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	bob := seedUser(t, svc.DB, "bob", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)

	// A: 3 guests at noon fits.
	a, err := svc.Create(ctx, BookingInput{UserID: alice.ID, TableID: table.ID, Date: "2025-03-22", Time: "12:00", NumberOfGuests: 3})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, "alice", a.User.Username)
	assert.Equal(t, 1, a.Table.Number)

	// B: same slot is taken.
	_, err = svc.Create(ctx, BookingInput{UserID: bob.ID, TableID: table.ID, Date: "2025-03-22", Time: "12:00", NumberOfGuests: 2})
	fe := requireFormError(t, err)
	assert.Equal(t, []string{MsgSlotTaken}, fe.NonField)
	assert.ErrorIs(t, err, ErrSlotTaken)

	// C: more guests than seats.
	_, err = svc.Create(ctx, BookingInput{UserID: bob.ID, TableID: table.ID, Date: "2025-03-22", Time: "19:00", NumberOfGuests: 5})
	fe = requireFormError(t, err)
	assert.Equal(t, []string{MsgOverCapacity}, fe.Fields["number_of_guests"])
	assert.Empty(t, fe.NonField)
	assert.NotErrorIs(t, err, ErrSlotTaken)

	assert.Equal(t, []string{feed.EventBookingCreated}, rec.events)
}

func TestBookingReportsCapacityAndConflictTogether(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	seedBooking(t, svc.DB, u, table, "2025-03-22", "12:00", 2, models.StatusConfirmed)

	_, err := svc.Create(ctx, BookingInput{UserID: u.ID, TableID: table.ID, Date: "2025-03-22", Time: "12:00", NumberOfGuests: 6})
	fe := requireFormError(t, err)
	assert.Equal(t, []string{MsgOverCapacity}, fe.Fields["number_of_guests"])
	assert.Equal(t, []string{MsgSlotTaken}, fe.NonField)
}

func TestCancelledBookingFreesSlot(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	seedBooking(t, svc.DB, u, table, "2025-03-25", "18:00", 2, models.StatusCancelled)

	b, err := svc.Create(ctx, BookingInput{UserID: u.ID, TableID: table.ID, Date: "2025-03-25", Time: "18:00:00", NumberOfGuests: 2})
	require.NoError(t, err)
	assert.Equal(t, "18:00", b.Time)
}

func TestCancelledCandidateSkipsConflictCheck(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	seedBooking(t, svc.DB, u, table, "2025-03-25", "18:00", 2, models.StatusPending)

	b, err := svc.Create(ctx, BookingInput{UserID: u.ID, TableID: table.ID, Date: "2025-03-25", Time: "18:00", NumberOfGuests: 2, Status: models.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, b.Status)
}

func TestCreateRejectsMalformedInput(t *testing.T) {
	svc, _ := newBookingService(t)
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)

	_, err := svc.Create(context.Background(), BookingInput{UserID: u.ID, TableID: 999, Date: "22/03/2025", Time: "noon", NumberOfGuests: 0})
	fe := requireFormError(t, err)
	assert.Contains(t, fe.Fields, "table")
	assert.Contains(t, fe.Fields, "date")
	assert.Contains(t, fe.Fields, "time")
	assert.Contains(t, fe.Fields, "number_of_guests")
}

func TestConcurrentCreatesForSameSlot(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	table := seedTable(t, svc.DB, 1, 4)
	var users []models.User
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		users = append(users, seedUser(t, svc.DB, name, models.RoleCustomer))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u models.User) {
			defer wg.Done()
			_, err := svc.Create(ctx, BookingInput{UserID: u.ID, TableID: table.ID, Date: "2025-04-01", Time: "20:00", NumberOfGuests: 2})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if fe, ok := AsFormError(err); ok && len(fe.NonField) == 1 && fe.NonField[0] == MsgSlotTaken {
				conflicts++
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, len(users)-1, conflicts)

	var active int64
	svc.DB.Model(&models.Booking{}).Where("status IN ?", models.ActiveStatuses).Count(&active)
	assert.Equal(t, int64(1), active)
}

func TestUpdateExcludesItselfFromConflicts(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	b := seedBooking(t, svc.DB, u, table, "2025-03-25", "12:00", 2, models.StatusConfirmed)

	updated, err := svc.Update(ctx, b.ID, OwnerRequest(u.ID), BookingInput{TableID: table.ID, Date: "2025-03-25", Time: "12:00", NumberOfGuests: 4, SpecialRequests: "window"})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.NumberOfGuests)
	assert.Equal(t, "window", updated.SpecialRequests)
	assert.Equal(t, models.StatusConfirmed, updated.Status, "edits keep a confirmed booking confirmed")
}

func TestUpdateIntoTakenSlotFails(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	other := seedUser(t, svc.DB, "bob", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	seedBooking(t, svc.DB, other, table, "2025-03-25", "19:00", 2, models.StatusPending)
	mine := seedBooking(t, svc.DB, u, table, "2025-03-25", "12:00", 2, models.StatusPending)

	_, err := svc.Update(ctx, mine.ID, OwnerRequest(u.ID), BookingInput{TableID: table.ID, Date: "2025-03-25", Time: "19:00", NumberOfGuests: 2})
	fe := requireFormError(t, err)
	assert.Equal(t, []string{MsgSlotTaken}, fe.NonField)

	var reloaded models.Booking
	require.NoError(t, svc.DB.First(&reloaded, mine.ID).Error)
	assert.Equal(t, "12:00", reloaded.Time)
}

func TestOwnerCannotTouchPastOrForeignBookings(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	other := seedUser(t, svc.DB, "bob", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	past := seedBooking(t, svc.DB, u, table, "2025-03-21", "12:00", 2, models.StatusPending)
	foreign := seedBooking(t, svc.DB, other, table, "2025-03-30", "12:00", 2, models.StatusPending)

	_, err := svc.Update(ctx, past.ID, OwnerRequest(u.ID), BookingInput{TableID: table.ID, Date: "2025-03-28", Time: "12:00", NumberOfGuests: 2})
	assert.ErrorIs(t, err, ErrPastBooking)
	_, _, err = svc.Transition(ctx, past.ID, models.StatusCancelled, OwnerRequest(u.ID))
	assert.ErrorIs(t, err, ErrPastBooking)

	_, err = svc.Get(ctx, foreign.ID, OwnerRequest(u.ID))
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.Transition(ctx, foreign.ID, models.StatusCancelled, OwnerRequest(u.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	// admins are not bound by the date
	_, changed, err := svc.Transition(ctx, past.ID, models.StatusCancelled, AdminRequest(99))
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestTransitions(t *testing.T) {
	svc, rec := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	b := seedBooking(t, svc.DB, u, table, "2025-03-25", "12:00", 2, models.StatusPending)

	_, _, err := svc.Transition(ctx, b.ID, models.StatusConfirmed, OwnerRequest(u.ID))
	assert.ErrorIs(t, err, ErrInvalidTransition, "owners cannot confirm")

	got, changed, err := svc.Transition(ctx, b.ID, models.StatusConfirmed, AdminRequest(1))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	_, changed, err = svc.Transition(ctx, b.ID, models.StatusConfirmed, AdminRequest(1))
	require.NoError(t, err)
	assert.False(t, changed, "re-confirm is a no-op")

	got, changed, err = svc.Transition(ctx, b.ID, models.StatusCancelled, OwnerRequest(u.ID))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusCancelled, got.Status)

	got, changed, err = svc.Transition(ctx, b.ID, models.StatusCancelled, OwnerRequest(u.ID))
	require.NoError(t, err)
	assert.False(t, changed, "re-cancel is a no-op")
	assert.Equal(t, models.StatusCancelled, got.Status)

	_, _, err = svc.Transition(ctx, b.ID, models.StatusConfirmed, AdminRequest(1))
	assert.ErrorIs(t, err, ErrInvalidTransition, "nothing leaves cancelled")

	assert.Equal(t, []string{feed.EventBookingConfirmed, feed.EventBookingCancelled}, rec.events)
}

func TestAdminEditCannotReviveCancelledBooking(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	b := seedBooking(t, svc.DB, u, table, "2025-03-25", "12:00", 2, models.StatusCancelled)

	_, err := svc.Update(ctx, b.ID, AdminRequest(1), BookingInput{TableID: table.ID, Date: "2025-03-25", Time: "12:00", NumberOfGuests: 2, Status: models.StatusPending})
	fe := requireFormError(t, err)
	assert.Contains(t, fe.Fields, "status")
}

func TestDeleteAndNotes(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	table := seedTable(t, svc.DB, 1, 4)
	b := seedBooking(t, svc.DB, u, table, "2025-03-25", "12:00", 2, models.StatusPending)

	noted, err := svc.SetNotes(ctx, b.ID, "VIP guest")
	require.NoError(t, err)
	assert.Equal(t, "VIP guest", noted.AdminNotes)

	require.NoError(t, svc.Delete(ctx, b.ID))
	assert.ErrorIs(t, svc.Delete(ctx, b.ID), ErrNotFound)
}

func TestListFiltersAndOrders(t *testing.T) {
	svc, _ := newBookingService(t)
	ctx := context.Background()
	u := seedUser(t, svc.DB, "alice", models.RoleCustomer)
	t1 := seedTable(t, svc.DB, 1, 4)
	t2 := seedTable(t, svc.DB, 2, 4)
	seedBooking(t, svc.DB, u, t1, "2025-03-22", "12:00", 2, models.StatusPending)
	seedBooking(t, svc.DB, u, t2, "2025-03-22", "19:00", 2, models.StatusConfirmed)
	seedBooking(t, svc.DB, u, t1, "2025-03-24", "18:00", 2, models.StatusCancelled)

	all, page, err := svc.List(ctx, BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), page.Count)
	assert.Equal(t, "2025-03-24", all[0].Date)
	assert.Equal(t, "19:00", all[1].Time)

	byDate, _, err := svc.List(ctx, BookingFilter{Date: "2025-03-22", Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "12:00", byDate[0].Time)

	mine, err := svc.ListForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestDuplicateKeyBecomesSlotConflict(t *testing.T) {
	err := translateWriteError(gorm.ErrDuplicatedKey)
	fe := requireFormError(t, err)
	assert.Equal(t, []string{MsgSlotTaken}, fe.NonField)
	assert.ErrorIs(t, err, ErrSlotTaken)

	other := errors.New("disk full")
	assert.Same(t, other, translateWriteError(other))
}
