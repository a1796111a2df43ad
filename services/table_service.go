package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

const MsgDuplicateTableNumber = "Table with this Number already exists."

// utilization assumes 8 bookable slots a day over a 30 day month
const slotsPerMonth = 30 * 8

type TableService struct {
	DB   *gorm.DB
	Feed Publisher
	Now  func() time.Time
}

func NewTableService(db *gorm.DB, feed Publisher) *TableService {
	return &TableService{DB: db, Feed: feed, Now: time.Now}
}

type TableInput struct {
	Number   int
	Capacity int
}

func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := s.DB.WithContext(ctx).Order("number").Find(&tables).Error
	return tables, err
}

func (s *TableService) Get(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.DB.WithContext(ctx).First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &table, nil
}

func (s *TableService) Create(ctx context.Context, in TableInput) (*models.Table, error) {
	if fe := validateTable(in); fe != nil {
		return nil, fe
	}
	table := models.Table{Number: in.Number, Capacity: in.Capacity}
	if err := s.DB.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, translateTableError(err)
	}
	utils.InfoLogger.Printf("Table %d created (capacity %d)", table.Number, table.Capacity)
	s.publish(feed.EventTableCreated, table)
	return &table, nil
}

func (s *TableService) Update(ctx context.Context, id uint, in TableInput) (*models.Table, error) {
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fe := validateTable(in); fe != nil {
		return nil, fe
	}
	table.Number = in.Number
	table.Capacity = in.Capacity
	if err := s.DB.WithContext(ctx).Save(table).Error; err != nil {
		return nil, translateTableError(err)
	}
	utils.InfoLogger.Printf("Table %d updated (capacity %d)", table.Number, table.Capacity)
	s.publish(feed.EventTableUpdated, table)
	return table, nil
}

// Delete refuses while any booking, whatever its status, still points at the table.
func (s *TableService) Delete(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&table, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var refs int64
		if err := tx.Model(&models.Booking{}).Where("table_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrTableHasBookings
		}
		return tx.Delete(&table).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return &table, ErrTableHasBookings
		}
		return &table, err
	}
	utils.InfoLogger.Printf("Table %d deleted", table.Number)
	s.publish(feed.EventTableDeleted, map[string]interface{}{"id": table.ID, "number": table.Number})
	return &table, nil
}

type TableStats struct {
	Table            models.Table     `json:"table"`
	UpcomingBookings []models.Booking `json:"upcoming_bookings"`
	TotalBookings    int64            `json:"total_bookings"`
	MonthBookings    int64            `json:"month_bookings"`
	Utilization      float64          `json:"utilization"`
}

// Stats backs the admin table detail page.
func (s *TableService) Stats(ctx context.Context, id uint) (*TableStats, error) {
	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	today := now.Format(models.DateLayout)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthStart := first.Format(models.DateLayout)
	nextMonth := first.AddDate(0, 1, 0).Format(models.DateLayout)

	db := s.DB.WithContext(ctx)
	stats := &TableStats{Table: *table}
	err = db.Preload("User").
		Where("table_id = ? AND booking_date >= ?", id, today).
		Order("booking_date").Order("booking_time").
		Limit(10).
		Find(&stats.UpcomingBookings).Error
	if err != nil {
		return nil, err
	}
	if err := db.Model(&models.Booking{}).Where("table_id = ?", id).Count(&stats.TotalBookings).Error; err != nil {
		return nil, err
	}
	err = db.Model(&models.Booking{}).
		Where("table_id = ? AND booking_date >= ? AND booking_date < ?", id, monthStart, nextMonth).
		Count(&stats.MonthBookings).Error
	if err != nil {
		return nil, err
	}
	stats.Utilization = round1(float64(stats.MonthBookings) / slotsPerMonth * 100)
	return stats, nil
}

func (s *TableService) publish(event string, data interface{}) {
	if s.Feed != nil {
		s.Feed.Publish(event, data)
	}
}

func validateTable(in TableInput) *FormError {
	fe := &FormError{}
	if in.Number < 1 {
		fe.Add("number", "Ensure this value is greater than or equal to 1.")
	}
	if in.Capacity < 1 {
		fe.Add("capacity", "Ensure this value is greater than or equal to 1.")
	}
	if fe.Empty() {
		return nil
	}
	return fe
}

func translateTableError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		fe := &FormError{}
		fe.Add("number", MsgDuplicateTableNumber)
		return fe
	}
	return err
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
