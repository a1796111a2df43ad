package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/models"
)

func TestDashboard(t *testing.T) {
	hub := feed.NewHub(20)
	svc := NewDashboardService(setupTestDB(t), hub)
	svc.Now = clock
	db := svc.DB

	u := seedUser(t, db, "alice", models.RoleCustomer)
	t1 := seedTable(t, db, 1, 4)
	t2 := seedTable(t, db, 2, 6)
	seedTable(t, db, 3, 2)
	seedBooking(t, db, u, t2, "2025-03-22", "19:00", 5, models.StatusPending)
	seedBooking(t, db, u, t1, "2025-03-22", "12:00", 3, models.StatusConfirmed)
	seedBooking(t, db, u, t2, "2025-03-20", "12:00", 2, models.StatusConfirmed)
	seedBooking(t, db, u, t2, "2025-03-01", "12:00", 2, models.StatusConfirmed)
	require.NoError(t, db.Create(&models.MenuItem{Name: "Soup", Price: decimal.NewFromInt(5), Category: models.CategorySoup, IsAvailable: true}).Error)
	hub.Publish(feed.EventBookingCreated, "first")
	hub.Publish(feed.EventBookingConfirmed, "second")

	d, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025-03-22", d.Today)
	require.Len(t, d.TodaysBookings, 2)
	assert.Equal(t, "12:00", d.TodaysBookings[0].Time)
	assert.Equal(t, int64(2), d.TodayBookings)
	assert.Equal(t, 4, d.TodayBookingsPercent)
	assert.Equal(t, int64(8), d.TotalGuestsToday)
	assert.Equal(t, 4, d.GuestsPercent)
	assert.Equal(t, int64(1), d.MenuItemsCount)

	require.Len(t, d.PopularTables, 3)
	assert.Equal(t, 2, d.PopularTables[0].Number)
	assert.Equal(t, int64(3), d.PopularTables[0].BookingCount)
	assert.Equal(t, int64(0), d.PopularTables[2].BookingCount)

	require.Len(t, d.WeekSeries, 7)
	assert.Equal(t, "Sun", d.WeekSeries[0].Label)
	assert.Equal(t, int64(1), d.WeekSeries[4].Count)
	assert.Equal(t, int64(2), d.WeekSeries[6].Count)
	require.Len(t, d.MonthSeries, 30)
	assert.Equal(t, "21 Feb", d.MonthSeries[0].Label)
	assert.Equal(t, int64(1), d.MonthSeries[8].Count)

	require.Len(t, d.RecentActivities, 2)
	assert.Equal(t, feed.EventBookingConfirmed, d.RecentActivities[0].Event)
}

func TestGaugeCapsAt100(t *testing.T) {
	assert.Equal(t, 100, gauge(75, 50))
	assert.Equal(t, 0, gauge(0, 200))
	assert.Equal(t, 49, gauge(99, 200))
}
