package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yeremiapane/restaurant-booking/cache"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

const reportCachePrefix = "report:"

type ReportService struct {
	DB    *gorm.DB
	Cache *cache.Client
	TTL   time.Duration
	Now   func() time.Time
}

func NewReportService(db *gorm.DB, c *cache.Client, ttl time.Duration) *ReportService {
	return &ReportService{DB: db, Cache: c, TTL: ttl, Now: time.Now}
}

type ReportRequest struct {
	Type      string
	Period    string
	StartDate string
	EndDate   string
}

type Report struct {
	Type      string           `json:"type"`
	Period    string           `json:"period"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Today     string           `json:"today"`
	Series    []SeriesPoint    `json:"series"`
	Bookings  *BookingSummary  `json:"bookings,omitempty"`
	Customers *CustomerSummary `json:"customers,omitempty"`
}

type BookingSummary struct {
	TotalBookings       int64                          `json:"total_bookings"`
	AvgBookingsPerDay   float64                        `json:"avg_bookings_per_day"`
	TotalGuests         int64                          `json:"total_guests"`
	AvgGuestsPerBooking float64                        `json:"avg_guests_per_booking"`
	StatusCounts        map[models.BookingStatus]int64 `json:"status_counts"`
	PopularHours        []HourCount                    `json:"popular_hours"`
}

type TopCustomer struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	BookingCount int64  `json:"booking_count"`
}

type CustomerSummary struct {
	TotalCustomers  int64         `json:"total_customers"`
	NewCustomers    int64         `json:"new_customers"`
	ActiveCustomers int64         `json:"active_customers"`
	TopCustomers    []TopCustomer `json:"top_customers"`
}

// Build resolves the range and aggregates the requested report. Unknown
// report types fall back to the bookings report.
func (s *ReportService) Build(ctx context.Context, req ReportRequest) (*Report, error) {
	now := s.Now()
	r := ResolveRange(req.Period, req.StartDate, req.EndDate, now)
	if req.Type != ReportCustomers {
		req.Type = ReportBookings
	}

	key := reportCachePrefix + req.Type + ":" + r.Period + ":" + r.StartDate() + ":" + r.EndDate()
	if raw := s.Cache.Get(ctx, key); raw != nil {
		var cached Report
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	report := &Report{
		Type:      req.Type,
		Period:    r.Period,
		StartDate: r.StartDate(),
		EndDate:   r.EndDate(),
		Today:     now.Format(models.DateLayout),
	}
	var err error
	if req.Type == ReportCustomers {
		err = s.customers(ctx, r, now, report)
	} else {
		err = s.bookings(ctx, r, report)
	}
	if err != nil {
		return nil, err
	}

	if s.TTL > 0 {
		if raw, err := json.Marshal(report); err == nil {
			s.Cache.Set(ctx, key, raw, s.TTL)
		}
	}
	return report, nil
}

// Invalidate drops every cached report.
func (s *ReportService) Invalidate(ctx context.Context) {
	s.Cache.DeletePrefix(ctx, reportCachePrefix)
}

func (s *ReportService) bookings(ctx context.Context, r ReportRange, report *Report) error {
	var rows []models.Booking
	err := s.DB.WithContext(ctx).
		Select("id", "booking_date", "booking_time", "number_of_guests", "status").
		Where("booking_date >= ? AND booking_date <= ?", r.StartDate(), r.EndDate()).
		Find(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[string]int64)
	byHour := make(map[int]int64)
	summary := &BookingSummary{StatusCounts: make(map[models.BookingStatus]int64, len(models.BookingStatuses))}
	for _, st := range models.BookingStatuses {
		summary.StatusCounts[st] = 0
	}

	for _, b := range rows {
		day, err := time.ParseInLocation(models.DateLayout, b.Date, r.Start.Location())
		if err != nil {
			utils.ErrorLogger.Printf("Skipping booking %d with bad date %q", b.ID, b.Date)
			continue
		}
		counts[r.BucketKey(day)]++
		summary.TotalBookings++
		summary.TotalGuests += int64(b.NumberOfGuests)
		summary.StatusCounts[b.Status]++
		if h := b.Hour(); h >= 0 {
			byHour[h]++
		}
	}

	summary.AvgBookingsPerDay = round1(float64(summary.TotalBookings) / float64(r.Days()))
	if summary.TotalBookings > 0 {
		summary.AvgGuestsPerBooking = round1(float64(summary.TotalGuests) / float64(summary.TotalBookings))
	}
	summary.PopularHours = TopHours(byHour, 5)

	report.Series = r.Series(counts)
	report.Bookings = summary
	return nil
}

func (s *ReportService) customers(ctx context.Context, r ReportRange, now time.Time, report *Report) error {
	db := s.DB.WithContext(ctx)

	// widen by a day on each side and filter exactly below, so stored
	// timestamp zones cannot push a join onto the wrong side of the range
	var users []models.User
	err := db.Select("id", "created_at").
		Where("created_at >= ? AND created_at < ?", r.Start.AddDate(0, 0, -1), r.End.AddDate(0, 0, 2)).
		Find(&users).Error
	if err != nil {
		return err
	}

	counts := make(map[string]int64)
	summary := &CustomerSummary{}
	loc := r.Start.Location()
	for _, u := range users {
		day := truncateDay(u.CreatedAt.In(loc))
		if day.Before(r.Start) || day.After(r.End) {
			continue
		}
		counts[r.BucketKey(day)]++
		summary.NewCustomers++
	}

	if err := db.Model(&models.User{}).Count(&summary.TotalCustomers).Error; err != nil {
		return err
	}

	since := truncateDay(now).AddDate(0, 0, -30).Format(models.DateLayout)
	err = db.Model(&models.Booking{}).
		Where("booking_date >= ?", since).
		Distinct("user_id").
		Count(&summary.ActiveCustomers).Error
	if err != nil {
		return err
	}

	err = db.Model(&models.User{}).
		Select("users.id, users.username, users.email, COUNT(bookings.id) AS booking_count").
		Joins("LEFT JOIN bookings ON bookings.user_id = users.id").
		Group("users.id, users.username, users.email").
		Order("booking_count DESC").Order("users.username").
		Limit(10).
		Scan(&summary.TopCustomers).Error
	if err != nil {
		return err
	}

	report.Series = r.Series(counts)
	report.Customers = summary
	return nil
}
