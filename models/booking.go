package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// BookingStatuses lists every status in display order.
var BookingStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled}

// ActiveStatuses are the statuses that hold a table slot.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultBookingTime = "12:00"
)

type Booking struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	User            User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	TableID         uint          `gorm:"not null;index" json:"table_id"`
	Table           Table         `gorm:"foreignKey:TableID;constraint:OnDelete:RESTRICT" json:"table"`
	Date            string        `gorm:"column:booking_date;type:varchar(10);not null;index" json:"date"`
	Time            string        `gorm:"column:booking_time;type:varchar(5);not null" json:"time"`
	NumberOfGuests  int           `gorm:"not null" json:"number_of_guests"`
	SpecialRequests string        `gorm:"type:text" json:"special_requests"`
	AdminNotes      string        `gorm:"type:text" json:"admin_notes,omitempty"`
	Status          BookingStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsPast reports whether the booking date lies before the given day.
func (b Booking) IsPast(today string) bool {
	return b.Date < today
}

// Hour returns the hour of the booking time, or -1 when the time is malformed.
func (b Booking) Hour() int {
	t, err := time.Parse(TimeLayout, b.Time)
	if err != nil {
		return -1
	}
	return t.Hour()
}
