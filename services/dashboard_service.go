package services

import (
	"context"
	"time"

	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/models"
	"gorm.io/gorm"
)

// gauge ceilings for the dashboard percentages
const (
	maxBookingsPerDay   = 50
	maxGuestsPerDay     = 200
	maxNewCustomerMonth = 100
)

// ActivitySource supplies the recent activity list; *feed.Hub implements it.
type ActivitySource interface {
	Recent(n int) []feed.Message
}

type DashboardService struct {
	DB       *gorm.DB
	Activity ActivitySource
	Now      func() time.Time
}

func NewDashboardService(db *gorm.DB, activity ActivitySource) *DashboardService {
	return &DashboardService{DB: db, Activity: activity, Now: time.Now}
}

type PopularTable struct {
	ID           uint  `json:"id"`
	Number       int   `json:"number"`
	Capacity     int   `json:"capacity"`
	BookingCount int64 `json:"booking_count"`
}

type Dashboard struct {
	Today                 string           `json:"today"`
	TodaysBookings        []models.Booking `json:"todays_bookings"`
	TodayBookings         int64            `json:"today_bookings"`
	TodayBookingsPercent  int              `json:"today_bookings_percent"`
	TotalGuestsToday      int64            `json:"total_guests_today"`
	GuestsPercent         int              `json:"guests_percent"`
	MenuItemsCount        int64            `json:"menu_items_count"`
	NewCustomersThisMonth int64            `json:"new_customers_this_month"`
	NewCustomersPercent   int              `json:"new_customers_percent"`
	PopularTables         []PopularTable   `json:"popular_tables"`
	WeekSeries            []SeriesPoint    `json:"week_series"`
	MonthSeries           []SeriesPoint    `json:"month_series"`
	RecentActivities      []feed.Message   `json:"recent_activities"`
}

func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	db := s.DB.WithContext(ctx)
	now := s.Now()
	today := truncateDay(now)
	d := &Dashboard{Today: today.Format(models.DateLayout)}

	todays := db.Model(&models.Booking{}).Where("booking_date = ?", d.Today)
	err := db.Preload("User").Preload("Table").
		Where("booking_date = ?", d.Today).
		Order("booking_time").Order("id").
		Limit(5).Find(&d.TodaysBookings).Error
	if err != nil {
		return nil, err
	}
	var agg struct {
		N      int64
		Guests int64
	}
	if err := todays.Select("COUNT(*) AS n, COALESCE(SUM(number_of_guests), 0) AS guests").Scan(&agg).Error; err != nil {
		return nil, err
	}
	d.TodayBookings, d.TotalGuestsToday = agg.N, agg.Guests

	if err := db.Model(&models.MenuItem{}).Count(&d.MenuItemsCount).Error; err != nil {
		return nil, err
	}
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	if err := db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&d.NewCustomersThisMonth).Error; err != nil {
		return nil, err
	}

	d.TodayBookingsPercent = gauge(d.TodayBookings, maxBookingsPerDay)
	d.GuestsPercent = gauge(d.TotalGuestsToday, maxGuestsPerDay)
	d.NewCustomersPercent = gauge(d.NewCustomersThisMonth, maxNewCustomerMonth)

	err = db.Model(&models.Table{}).
		Select("tables.id, tables.number, tables.capacity, COUNT(bookings.id) AS booking_count").
		Joins("LEFT JOIN bookings ON bookings.table_id = tables.id").
		Group("tables.id, tables.number, tables.capacity").
		Order("booking_count DESC").Order("tables.number").
		Limit(5).
		Scan(&d.PopularTables).Error
	if err != nil {
		return nil, err
	}

	week := ReportRange{Period: PeriodWeek, Start: today.AddDate(0, 0, -6), End: today}
	month := ReportRange{Period: PeriodMonth, Start: today.AddDate(0, 0, -29), End: today}
	counts, err := s.countByDate(db, month.StartDate(), month.EndDate())
	if err != nil {
		return nil, err
	}
	d.WeekSeries = week.Series(counts)
	d.MonthSeries = month.Series(counts)

	if s.Activity != nil {
		d.RecentActivities = s.Activity.Recent(10)
	}
	return d, nil
}

func (s *DashboardService) countByDate(db *gorm.DB, from, to string) (map[string]int64, error) {
	var rows []struct {
		BookingDate string
		N           int64
	}
	err := db.Model(&models.Booking{}).
		Select("booking_date, COUNT(*) AS n").
		Where("booking_date >= ? AND booking_date <= ?", from, to).
		Group("booking_date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.BookingDate] = r.N
	}
	return counts, nil
}

// gauge is value as a whole percentage of ceiling, capped at 100.
func gauge(value int64, ceiling int64) int {
	p := int(value * 100 / ceiling)
	if p > 100 {
		return 100
	}
	return p
}
