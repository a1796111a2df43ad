package database

import (
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

const SlotIndexName = "uniq_bookings_active_slot"

var slotIndexStatements = map[string][]string{
	DriverSQLite: {
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + SlotIndexName + ` ON bookings (table_id, booking_date, booking_time) WHERE status IN ('pending','confirmed')`,
	},
	DriverPostgres: {
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + SlotIndexName + ` ON bookings (table_id, booking_date, booking_time) WHERE status IN ('pending','confirmed')`,
	},
}

// EnsureBookingSlotIndex adds the partial unique index that keeps two active
// bookings off the same table slot. MySQL has no partial indexes; there the
// table row lock taken by the booking service is the only guard.
func EnsureBookingSlotIndex(db *gorm.DB) error {
	dialect := db.Dialector.Name()
	statements, ok := slotIndexStatements[dialect]
	if !ok {
		utils.InfoLogger.Printf("No partial slot index for %s, relying on row locks", dialect)
		return nil
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			utils.ErrorLogger.Printf("Error creating index: %v\nStatement: %s", err, stmt)
			return err
		}
	}
	utils.InfoLogger.Printf("Index %s ready", SlotIndexName)
	return nil
}
