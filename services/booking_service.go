package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Publisher receives activity events; *feed.Hub implements it.
type Publisher interface {
	Publish(event string, data interface{})
}

// Requester identifies who is acting on a booking.
type Requester struct {
	UserID uint
	Actor  Actor
}

func OwnerRequest(userID uint) Requester { return Requester{UserID: userID, Actor: ActorOwner} }
func AdminRequest(userID uint) Requester { return Requester{UserID: userID, Actor: ActorAdmin} }

type BookingInput struct {
	UserID          uint
	TableID         uint
	Date            string
	Time            string
	NumberOfGuests  int
	SpecialRequests string
	// Status is pending when empty on create and left alone when empty on update.
	Status models.BookingStatus
}

type BookingService struct {
	DB   *gorm.DB
	Feed Publisher
	Now  func() time.Time
}

func NewBookingService(db *gorm.DB, feed Publisher) *BookingService {
	return &BookingService{DB: db, Feed: feed, Now: time.Now}
}

func (s *BookingService) Today() string {
	return s.Now().Format(models.DateLayout)
}

// Create validates and stores a booking in one transaction that holds the
// table row, so two requests for the same slot cannot both pass the check.
func (s *BookingService) Create(ctx context.Context, in BookingInput) (*models.Booking, error) {
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	booking := models.Booking{
		UserID:          in.UserID,
		TableID:         in.TableID,
		Date:            in.Date,
		Time:            in.Time,
		NumberOfGuests:  in.NumberOfGuests,
		SpecialRequests: in.SpecialRequests,
		Status:          in.Status,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateBooking(tx, &booking); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&booking).Error; err != nil {
			return translateWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.preload(ctx, &booking); err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Booking %d created: table %d on %s %s for %d guests",
		booking.ID, booking.Table.Number, booking.Date, booking.Time, booking.NumberOfGuests)
	s.publish(feed.EventBookingCreated, booking)
	return &booking, nil
}

// Update re-validates the edited booking against every other booking.
// Owners cannot touch bookings dated before today.
func (s *BookingService) Update(ctx context.Context, id uint, req Requester, in BookingInput) (*models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = findBooking(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, req)
		if err != nil {
			return err
		}
		if req.Actor == ActorOwner && booking.IsPast(s.Today()) {
			return ErrPastBooking
		}

		var statusErr string
		if in.Status != "" && in.Status != booking.Status {
			if err := CanTransition(booking.Status, in.Status, req.Actor); err != nil {
				statusErr = fmt.Sprintf("Cannot change status from %s to %s.", booking.Status, in.Status)
			} else {
				booking.Status = in.Status
			}
		}
		if in.UserID != 0 && req.Actor == ActorAdmin {
			booking.UserID = in.UserID
		}
		booking.TableID = in.TableID
		booking.Date = in.Date
		booking.Time = in.Time
		booking.NumberOfGuests = in.NumberOfGuests
		booking.SpecialRequests = in.SpecialRequests

		verr := validateBooking(tx, &booking)
		if statusErr != "" {
			fe, ok := AsFormError(verr)
			if !ok {
				if verr != nil {
					return verr
				}
				fe = &FormError{}
			}
			fe.Add("status", statusErr)
			return fe
		}
		if verr != nil {
			return verr
		}
		if err := tx.Omit(clause.Associations).Save(&booking).Error; err != nil {
			return translateWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.preload(ctx, &booking); err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Booking %d updated by %s %d", booking.ID, req.Actor, req.UserID)
	s.publish(feed.EventBookingUpdated, booking)
	return &booking, nil
}

// Transition moves a booking to status to. Asking for the status it already
// has writes nothing and reports changed=false.
func (s *BookingService) Transition(ctx context.Context, id uint, to models.BookingStatus, req Requester) (*models.Booking, bool, error) {
	var (
		booking models.Booking
		changed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = findBooking(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, req)
		if err != nil {
			return err
		}
		if req.Actor == ActorOwner && booking.IsPast(s.Today()) {
			return ErrPastBooking
		}
		if booking.Status == to {
			return nil
		}
		if err := CanTransition(booking.Status, to, req.Actor); err != nil {
			return err
		}
		if err := tx.Model(&booking).Update("status", to).Error; err != nil {
			return err
		}
		booking.Status = to
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if err := s.preload(ctx, &booking); err != nil {
		return nil, false, err
	}
	if changed {
		utils.InfoLogger.Printf("Booking %d is now %s (by %s %d)", booking.ID, to, req.Actor, req.UserID)
		s.publish(statusEvent(to), booking)
	}
	return &booking, changed, nil
}

func (s *BookingService) Delete(ctx context.Context, id uint) error {
	booking, err := findBooking(s.DB.WithContext(ctx), id, Requester{Actor: ActorAdmin})
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(&booking).Error; err != nil {
		return err
	}
	utils.InfoLogger.Printf("Booking %d deleted", id)
	s.publish(feed.EventBookingDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *BookingService) SetNotes(ctx context.Context, id uint, notes string) (*models.Booking, error) {
	booking, err := findBooking(s.DB.WithContext(ctx), id, Requester{Actor: ActorAdmin})
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&booking).Update("admin_notes", notes).Error; err != nil {
		return nil, err
	}
	booking.AdminNotes = notes
	return &booking, s.preload(ctx, &booking)
}

// Get loads one booking with its user and table. Owners only see their own.
func (s *BookingService) Get(ctx context.Context, id uint, req Requester) (*models.Booking, error) {
	booking, err := findBooking(s.DB.WithContext(ctx).Preload("User").Preload("Table"), id, req)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListForUser returns a user's bookings, latest first.
func (s *BookingService) ListForUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Table").
		Where("user_id = ?", userID).
		Order("booking_date DESC").Order("booking_time DESC").
		Find(&bookings).Error
	return bookings, err
}

type BookingFilter struct {
	Date   string
	Status models.BookingStatus
	Page   string
}

const AdminBookingsPerPage = 10

// List is the admin bookings screen query.
func (s *BookingService) List(ctx context.Context, f BookingFilter) ([]models.Booking, utils.Page, error) {
	q := s.DB.WithContext(ctx).Model(&models.Booking{})
	if f.Date != "" {
		q = q.Where("booking_date = ?", f.Date)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, utils.Page{}, err
	}
	page := utils.Paginate(f.Page, count, AdminBookingsPerPage)

	var bookings []models.Booking
	err := q.Preload("User").Preload("Table").
		Order("booking_date DESC").Order("booking_time DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.PerPage).
		Find(&bookings).Error
	return bookings, page, err
}

func (s *BookingService) preload(ctx context.Context, b *models.Booking) error {
	return s.DB.WithContext(ctx).Preload("User").Preload("Table").First(b, b.ID).Error
}

func (s *BookingService) publish(event string, data interface{}) {
	if s.Feed != nil {
		s.Feed.Publish(event, data)
	}
}

func statusEvent(to models.BookingStatus) string {
	switch to {
	case models.StatusConfirmed:
		return feed.EventBookingConfirmed
	case models.StatusCancelled:
		return feed.EventBookingCancelled
	}
	return feed.EventBookingUpdated
}

func findBooking(db *gorm.DB, id uint, req Requester) (models.Booking, error) {
	var booking models.Booking
	q := db.Where("id = ?", id)
	if req.Actor != ActorAdmin {
		q = q.Where("user_id = ?", req.UserID)
	}
	if err := q.First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking, ErrNotFound
		}
		return booking, err
	}
	return booking, nil
}

// validateBooking runs the field checks, the capacity check and the slot
// conflict check, reporting every failure together. It locks the table row
// first so concurrent writers for the same table queue up behind it.
func validateBooking(tx *gorm.DB, b *models.Booking) error {
	fe := &FormError{}

	date, ok := NormalizeDate(b.Date)
	if !ok {
		fe.Add("date", "Enter a valid date.")
	}
	b.Date = date
	clock, ok := NormalizeTime(b.Time)
	if !ok {
		fe.Add("time", "Enter a valid time.")
	}
	b.Time = clock
	if b.NumberOfGuests < 1 {
		fe.Add("number_of_guests", "Ensure this value is greater than or equal to 1.")
	}
	if !b.Status.Valid() {
		fe.Add("status", MsgInvalidChoice)
	}

	var table models.Table
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&table, b.TableID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fe.Add("table", MsgInvalidChoice)
	case err != nil:
		return err
	}

	if !fe.Empty() && (len(fe.Fields["date"]) > 0 || len(fe.Fields["time"]) > 0 || table.ID == 0) {
		return fe
	}

	if b.NumberOfGuests > table.Capacity {
		fe.Add("number_of_guests", MsgOverCapacity)
	}

	if b.Status.Active() {
		q := tx.Model(&models.Booking{}).
			Where("table_id = ? AND booking_date = ? AND booking_time = ?", b.TableID, b.Date, b.Time).
			Where("status IN ?", models.ActiveStatuses)
		if b.ID != 0 {
			q = q.Where("id <> ?", b.ID)
		}
		var clashes int64
		if err := q.Count(&clashes).Error; err != nil {
			return err
		}
		if clashes > 0 {
			fe.AddNonField(MsgSlotTaken)
		}
	}

	if !fe.Empty() {
		return fe
	}
	return nil
}

// translateWriteError turns a slot index violation into the same form error
// the conflict check produces.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &FormError{NonField: []string{MsgSlotTaken}}
	}
	return err
}

// NormalizeDate accepts YYYY-MM-DD.
func NormalizeDate(s string) (string, bool) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return s, false
	}
	return t.Format(models.DateLayout), true
}

// NormalizeTime accepts HH:MM and HH:MM:SS and drops the seconds.
func NormalizeTime(s string) (string, bool) {
	for _, layout := range []string{models.TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.TimeLayout), true
		}
	}
	return s, false
}
