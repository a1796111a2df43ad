package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

const (
	MsgBookingCreated   = "Booking created successfully"
	MsgBookingUpdated   = "Booking updated successfully"
	MsgBookingConfirmed = "Booking confirmed successfully"
	MsgBookingCancelled = "Booking cancelled successfully"
	MsgBookingDeleted   = "Booking deleted successfully"
	MsgPastEdit         = "Cannot edit past bookings."
	MsgPastCancel       = "Cannot cancel past bookings."
)

// BookingController serves the customer side: a user only ever sees and
// changes their own bookings.
type BookingController struct {
	Bookings *services.BookingService
	Tables   *services.TableService
}

func NewBookingController(bookings *services.BookingService, tables *services.TableService) *BookingController {
	return &BookingController{Bookings: bookings, Tables: tables}
}

func bookingFormFrom(b *models.Booking) BookingForm {
	return BookingForm{
		Table:           b.TableID,
		Date:            b.Date,
		Time:            b.Time,
		NumberOfGuests:  b.NumberOfGuests,
		SpecialRequests: b.SpecialRequests,
	}
}

func (bc *BookingController) renderForm(c *gin.Context, page string, form interface{}, errs map[string][]string, extra gin.H) {
	tables, err := bc.Tables.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if extra == nil {
		extra = gin.H{}
	}
	extra["tables"] = tables
	if errs == nil {
		data := gin.H{"form": form}
		for k, v := range extra {
			data[k] = v
		}
		utils.Render(c, page, data)
		return
	}
	utils.RenderForm(c, page, "", form, errs, extra)
}

func (bc *BookingController) NewBookingPage(c *gin.Context) {
	bc.renderForm(c, "booking_form", BookingForm{
		Date:           bc.Bookings.Today(),
		Time:           models.DefaultBookingTime,
		NumberOfGuests: 1,
	}, nil, nil)
}

func (bc *BookingController) CreateBooking(c *gin.Context) {
	uid, _ := middlewares.CurrentUserID(c)
	var form BookingForm
	if err := c.ShouldBind(&form); err != nil {
		bc.renderForm(c, "booking_form", form, bindingErrors(err), nil)
		return
	}

	booking, err := bc.Bookings.Create(c.Request.Context(), form.input(uid))
	if err != nil {
		if fe, ok := services.AsFormError(err); ok {
			bc.renderForm(c, "booking_form", form, fe.Map(), nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("User %d booked table %d for %s %s", uid, booking.Table.Number, booking.Date, booking.Time)
	utils.RedirectWithFlash(c, fmt.Sprintf("/booking/%d", booking.ID), utils.FlashSuccess, MsgBookingCreated)
}

func (bc *BookingController) ownBooking(c *gin.Context) (*models.Booking, bool) {
	id, ok := paramID(c)
	if !ok {
		return nil, false
	}
	uid, _ := middlewares.CurrentUserID(c)
	booking, err := bc.Bookings.Get(c.Request.Context(), id, services.OwnerRequest(uid))
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return booking, true
}

func (bc *BookingController) BookingDetail(c *gin.Context) {
	booking, ok := bc.ownBooking(c)
	if !ok {
		return
	}
	today := bc.Bookings.Today()
	utils.Render(c, "booking_detail", gin.H{
		"booking":    booking,
		"is_past":    booking.IsPast(today),
		"can_cancel": !booking.IsPast(today) && len(services.ValidTransitionsFrom(booking.Status, services.ActorOwner)) > 0,
	})
}

func (bc *BookingController) EditBookingPage(c *gin.Context) {
	booking, ok := bc.ownBooking(c)
	if !ok {
		return
	}
	if booking.IsPast(bc.Bookings.Today()) {
		utils.RedirectWithFlash(c, "/mybookings", utils.FlashError, MsgPastEdit)
		return
	}
	bc.renderForm(c, "booking_edit", bookingFormFrom(booking), nil, gin.H{"booking": booking})
}

func (bc *BookingController) UpdateBooking(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	uid, _ := middlewares.CurrentUserID(c)
	var form BookingForm
	if err := c.ShouldBind(&form); err != nil {
		bc.renderForm(c, "booking_edit", form, bindingErrors(err), gin.H{"booking_id": id})
		return
	}

	_, err := bc.Bookings.Update(c.Request.Context(), id, services.OwnerRequest(uid), form.input(uid))
	switch {
	case err == nil:
		utils.RedirectWithFlash(c, "/mybookings", utils.FlashSuccess, MsgBookingUpdated)
	case errors.Is(err, services.ErrPastBooking):
		utils.RedirectWithFlash(c, "/mybookings", utils.FlashError, MsgPastEdit)
	default:
		if fe, ok := services.AsFormError(err); ok {
			bc.renderForm(c, "booking_edit", form, fe.Map(), gin.H{"booking_id": id})
			return
		}
		respondServiceError(c, err)
	}
}

func (bc *BookingController) CancelBookingPage(c *gin.Context) {
	booking, ok := bc.ownBooking(c)
	if !ok {
		return
	}
	if booking.IsPast(bc.Bookings.Today()) {
		utils.RedirectWithFlash(c, "/mybookings", utils.FlashError, MsgPastCancel)
		return
	}
	utils.Render(c, "booking_cancel", gin.H{"booking": booking})
}

// CancelBooking is idempotent: cancelling twice reports success both times.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	uid, _ := middlewares.CurrentUserID(c)
	_, _, err := bc.Bookings.Transition(c.Request.Context(), id, models.StatusCancelled, services.OwnerRequest(uid))
	switch {
	case err == nil:
		utils.RedirectWithFlash(c, "/mybookings", utils.FlashSuccess, MsgBookingCancelled)
	case errors.Is(err, services.ErrPastBooking):
		utils.RedirectWithFlash(c, "/mybookings", utils.FlashError, MsgPastCancel)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RedirectWithFlash(c, "/mybookings", utils.FlashError, "This booking cannot be cancelled.")
	default:
		respondServiceError(c, err)
	}
}

func (bc *BookingController) MyBookings(c *gin.Context) {
	uid, _ := middlewares.CurrentUserID(c)
	bookings, err := bc.Bookings.ListForUser(c.Request.Context(), uid)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "my_bookings", gin.H{
		"bookings": bookings,
		"today":    bc.Bookings.Today(),
	})
}
