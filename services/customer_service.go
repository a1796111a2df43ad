package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

const CustomersPerPage = 20

type CustomerService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{DB: db, Now: time.Now}
}

type CustomerRow struct {
	models.User
	BookingsCount int64           `json:"bookings_count"`
	LastBooking   *models.Booking `json:"last_booking,omitempty"`
}

// List searches username, email and names case-insensitively.
func (s *CustomerService) List(ctx context.Context, search, rawPage string) ([]CustomerRow, utils.Page, error) {
	db := s.DB.WithContext(ctx)
	q := db.Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like, like)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, utils.Page{}, err
	}
	page := utils.Paginate(rawPage, count, CustomersPerPage)

	var users []models.User
	if err := q.Order("username").Offset(page.Offset()).Limit(page.PerPage).Find(&users).Error; err != nil {
		return nil, page, err
	}

	rows := make([]CustomerRow, 0, len(users))
	for _, u := range users {
		row := CustomerRow{User: u}
		if err := db.Model(&models.Booking{}).Where("user_id = ?", u.ID).Count(&row.BookingsCount).Error; err != nil {
			return nil, page, err
		}
		if row.BookingsCount > 0 {
			var last models.Booking
			err := db.Preload("Table").Where("user_id = ?", u.ID).
				Order("booking_date DESC").Order("booking_time DESC").
				First(&last).Error
			if err != nil {
				return nil, page, err
			}
			row.LastBooking = &last
		}
		rows = append(rows, row)
	}
	return rows, page, nil
}

type CustomerDetail struct {
	Customer          models.User      `json:"customer"`
	Bookings          []models.Booking `json:"bookings"`
	BookingsCount     int64            `json:"bookings_count"`
	UpcomingBookings  int64            `json:"upcoming_bookings"`
	CompletedBookings int64            `json:"completed_bookings"`
	CancelledBookings int64            `json:"cancelled_bookings"`
	FavoriteTable     *models.Table    `json:"favorite_table,omitempty"`
	AvgPartySize      float64          `json:"avg_party_size"`
	MemberSince       time.Time        `json:"member_since"`
	DaysAsMember      int              `json:"days_as_member"`
}

// Detail backs the admin customer page. Completed means dated before today.
func (s *CustomerService) Detail(ctx context.Context, userID uint) (*CustomerDetail, error) {
	db := s.DB.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	now := s.Now()
	today := now.Format(models.DateLayout)

	d := &CustomerDetail{Customer: user, MemberSince: user.CreatedAt}
	d.DaysAsMember = daysBetween(user.CreatedAt, now)

	own := func() *gorm.DB { return db.Model(&models.Booking{}).Where("user_id = ?", userID) }
	err := db.Preload("Table").Where("user_id = ?", userID).
		Order("booking_date DESC").Order("booking_time DESC").
		Limit(10).Find(&d.Bookings).Error
	if err != nil {
		return nil, err
	}
	if err := own().Count(&d.BookingsCount).Error; err != nil {
		return nil, err
	}
	if err := own().Where("booking_date >= ?", today).Count(&d.UpcomingBookings).Error; err != nil {
		return nil, err
	}
	if err := own().Where("booking_date < ?", today).Count(&d.CompletedBookings).Error; err != nil {
		return nil, err
	}
	if err := own().Where("status = ?", models.StatusCancelled).Count(&d.CancelledBookings).Error; err != nil {
		return nil, err
	}
	if d.BookingsCount == 0 {
		return d, nil
	}

	avg, err := averageGuests(own())
	if err != nil {
		return nil, err
	}
	d.AvgPartySize = avg

	var fav struct {
		TableID uint
		Uses    int64
	}
	err = own().Select("table_id, COUNT(*) AS uses").
		Group("table_id").Order("uses DESC").Order("table_id").
		Limit(1).Scan(&fav).Error
	if err != nil {
		return nil, err
	}
	var table models.Table
	if err := db.First(&table, fav.TableID).Error; err == nil {
		d.FavoriteTable = &table
	}
	return d, nil
}

type BookingDetail struct {
	Booking              models.Booking         `json:"booking"`
	OtherBookings        []models.Booking       `json:"other_bookings"`
	CustomerBookingCount int64                  `json:"customer_booking_count"`
	CustomerVisits       int64                  `json:"customer_visits"`
	AvgPartySize         float64                `json:"avg_party_size"`
	NextStatuses         []models.BookingStatus `json:"next_statuses"`
}

// BookingDetail backs the admin booking page: the booking plus what we know
// about the customer who made it.
func (s *CustomerService) BookingDetail(ctx context.Context, booking models.Booking) (*BookingDetail, error) {
	db := s.DB.WithContext(ctx)
	today := s.Now().Format(models.DateLayout)
	d := &BookingDetail{
		Booking:      booking,
		NextStatuses: ValidTransitionsFrom(booking.Status, ActorAdmin),
	}

	err := db.Preload("Table").
		Where("user_id = ? AND id <> ?", booking.UserID, booking.ID).
		Order("booking_date DESC").Order("booking_time DESC").
		Limit(5).Find(&d.OtherBookings).Error
	if err != nil {
		return nil, err
	}
	own := func() *gorm.DB { return db.Model(&models.Booking{}).Where("user_id = ?", booking.UserID) }
	if err := own().Count(&d.CustomerBookingCount).Error; err != nil {
		return nil, err
	}
	if err := own().Where("booking_date < ?", today).Count(&d.CustomerVisits).Error; err != nil {
		return nil, err
	}
	if d.AvgPartySize, err = averageGuests(own()); err != nil {
		return nil, err
	}
	return d, nil
}

func averageGuests(q *gorm.DB) (float64, error) {
	var agg struct {
		Total int64
		N     int64
	}
	if err := q.Select("COALESCE(SUM(number_of_guests), 0) AS total, COUNT(*) AS n").Scan(&agg).Error; err != nil {
		return 0, err
	}
	if agg.N == 0 {
		return 0, nil
	}
	return round1(float64(agg.Total) / float64(agg.N)), nil
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
