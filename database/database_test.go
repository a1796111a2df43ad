package database

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestSlotIndexBlocksSecondActiveBooking(t *testing.T) {
	db := openTestDB(t)
	user := models.User{Username: "alice", Password: "x", Role: models.RoleCustomer}
	table := models.Table{Number: 1, Capacity: 4}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&table).Error)

	first := models.Booking{UserID: user.ID, TableID: table.ID, Date: "2025-03-22", Time: "12:00", NumberOfGuests: 2, Status: models.StatusPending}
	require.NoError(t, db.Omit("User", "Table").Create(&first).Error)

	second := first
	second.ID = 0
	second.Status = models.StatusConfirmed
	err := db.Omit("User", "Table").Create(&second).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	cancelled := first
	cancelled.ID = 0
	cancelled.Status = models.StatusCancelled
	assert.NoError(t, db.Omit("User", "Table").Create(&cancelled).Error)
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasIndex(&models.Booking{}, SlotIndexName))
}
