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
	MsgSelectUser     = "Please select a user for this booking"
	MsgUnknownUser    = "Selected user does not exist"
	MsgInvalidDate    = "Invalid date format"
	MsgNotesUpdated   = "Admin notes updated successfully"
	adminBookingsPath = "/admin-bookings"
)

type AdminBookingController struct {
	Bookings  *services.BookingService
	Customers *services.CustomerService
	Tables    *services.TableService
	Users     *services.UserService
}

func NewAdminBookingController(bookings *services.BookingService, customers *services.CustomerService,
	tables *services.TableService, users *services.UserService) *AdminBookingController {
	return &AdminBookingController{Bookings: bookings, Customers: customers, Tables: tables, Users: users}
}

func bookingPath(id uint) string {
	return fmt.Sprintf("%s/%d", adminBookingsPath, id)
}

// ListBookings filters by date and status. A bad date is reported and ignored.
func (ac *AdminBookingController) ListBookings(c *gin.Context) {
	filter := services.BookingFilter{Page: c.Query("page")}
	if raw := c.Query("date"); raw != "" {
		if date, ok := services.NormalizeDate(raw); ok {
			filter.Date = date
		} else {
			utils.AddFlash(c, utils.FlashError, MsgInvalidDate)
		}
	}
	if status := models.BookingStatus(c.Query("status")); status.Valid() {
		filter.Status = status
	}

	bookings, page, err := ac.Bookings.List(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "admin_bookings", gin.H{
		"bookings":      bookings,
		"page":          page,
		"date_filter":   filter.Date,
		"status_filter": filter.Status,
		"statuses":      models.BookingStatuses,
	})
}

func (ac *AdminBookingController) renderForm(c *gin.Context, page string, form AdminBookingForm, errs map[string][]string, extra gin.H) {
	ctx := c.Request.Context()
	tables, err := ac.Tables.List(ctx)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	users, err := ac.Users.List(ctx)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if extra == nil {
		extra = gin.H{}
	}
	extra["tables"] = tables
	extra["users"] = users
	extra["statuses"] = models.BookingStatuses
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

func (ac *AdminBookingController) AddBookingPage(c *gin.Context) {
	form := AdminBookingForm{
		BookingForm: BookingForm{Date: ac.Bookings.Today(), Time: models.DefaultBookingTime, NumberOfGuests: 1},
		Status:      models.StatusPending,
	}
	ac.renderForm(c, "admin_booking_form", form, nil, nil)
}

// AddBooking books on behalf of a customer, with any initial status.
func (ac *AdminBookingController) AddBooking(c *gin.Context) {
	ctx := c.Request.Context()
	var form AdminBookingForm
	if err := c.ShouldBind(&form); err != nil {
		ac.renderForm(c, "admin_booking_form", form, bindingErrors(err), nil)
		return
	}
	if form.User == 0 {
		utils.AddFlash(c, utils.FlashError, MsgSelectUser)
		ac.renderForm(c, "admin_booking_form", form, map[string][]string{"user": {services.MsgRequired}}, nil)
		return
	}
	if _, err := ac.Users.Get(ctx, form.User); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.AddFlash(c, utils.FlashError, MsgUnknownUser)
		ac.renderForm(c, "admin_booking_form", form, map[string][]string{"user": {services.MsgInvalidChoice}}, nil)
		return
	}

	in := form.input(form.User)
	in.Status = form.Status
	booking, err := ac.Bookings.Create(ctx, in)
	if err != nil {
		if fe, ok := services.AsFormError(err); ok {
			ac.renderForm(c, "admin_booking_form", form, fe.Map(), nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	uid, _ := middlewares.CurrentUserID(c)
	utils.InfoLogger.Printf("Admin %d created booking %d for user %d", uid, booking.ID, booking.UserID)
	utils.RedirectWithFlash(c, adminBookingsPath, utils.FlashSuccess, MsgBookingCreated)
}

func (ac *AdminBookingController) booking(c *gin.Context) (*models.Booking, bool) {
	id, ok := paramID(c)
	if !ok {
		return nil, false
	}
	uid, _ := middlewares.CurrentUserID(c)
	booking, err := ac.Bookings.Get(c.Request.Context(), id, services.AdminRequest(uid))
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return booking, true
}

func (ac *AdminBookingController) BookingDetail(c *gin.Context) {
	booking, ok := ac.booking(c)
	if !ok {
		return
	}
	detail, err := ac.Customers.BookingDetail(c.Request.Context(), *booking)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.Render(c, "admin_booking_detail", detail)
}

func (ac *AdminBookingController) EditBookingPage(c *gin.Context) {
	booking, ok := ac.booking(c)
	if !ok {
		return
	}
	form := AdminBookingForm{BookingForm: bookingFormFrom(booking), User: booking.UserID, Status: booking.Status}
	ac.renderForm(c, "admin_booking_edit", form, nil, gin.H{"booking": booking})
}

func (ac *AdminBookingController) UpdateBooking(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var form AdminBookingForm
	if err := c.ShouldBind(&form); err != nil {
		ac.renderForm(c, "admin_booking_edit", form, bindingErrors(err), gin.H{"booking_id": id})
		return
	}
	if form.User != 0 {
		if _, err := ac.Users.Get(c.Request.Context(), form.User); err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				utils.RespondError(c, http.StatusInternalServerError, err)
				return
			}
			utils.AddFlash(c, utils.FlashError, MsgUnknownUser)
			ac.renderForm(c, "admin_booking_edit", form, map[string][]string{"user": {services.MsgInvalidChoice}}, gin.H{"booking_id": id})
			return
		}
	}

	uid, _ := middlewares.CurrentUserID(c)
	in := form.input(form.User)
	in.Status = form.Status
	if _, err := ac.Bookings.Update(c.Request.Context(), id, services.AdminRequest(uid), in); err != nil {
		if fe, ok := services.AsFormError(err); ok {
			ac.renderForm(c, "admin_booking_edit", form, fe.Map(), gin.H{"booking_id": id})
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, bookingPath(id), utils.FlashSuccess, MsgBookingUpdated)
}

func (ac *AdminBookingController) ConfirmBooking(c *gin.Context) {
	ac.transition(c, models.StatusConfirmed, MsgBookingConfirmed)
}

func (ac *AdminBookingController) CancelBooking(c *gin.Context) {
	ac.transition(c, models.StatusCancelled, MsgBookingCancelled)
}

func (ac *AdminBookingController) transition(c *gin.Context, to models.BookingStatus, success string) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	uid, _ := middlewares.CurrentUserID(c)
	booking, _, err := ac.Bookings.Transition(c.Request.Context(), id, to, services.AdminRequest(uid))
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			current, gerr := ac.Bookings.Get(c.Request.Context(), id, services.AdminRequest(uid))
			if gerr != nil {
				respondServiceError(c, gerr)
				return
			}
			utils.RedirectWithFlash(c, bookingPath(id), utils.FlashError,
				fmt.Sprintf("Cannot change a %s booking to %s.", current.Status, to))
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, bookingPath(booking.ID), utils.FlashSuccess, success)
}

func (ac *AdminBookingController) DeleteBookingPage(c *gin.Context) {
	booking, ok := ac.booking(c)
	if !ok {
		return
	}
	utils.Render(c, "admin_booking_delete", gin.H{"booking": booking})
}

func (ac *AdminBookingController) DeleteBooking(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := ac.Bookings.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, adminBookingsPath, utils.FlashSuccess, MsgBookingDeleted)
}

func (ac *AdminBookingController) UpdateNotes(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var form NotesForm
	if err := c.ShouldBind(&form); err != nil {
		utils.RedirectWithFlash(c, bookingPath(id), utils.FlashError, "Admin notes are too long.")
		return
	}
	if _, err := ac.Bookings.SetNotes(c.Request.Context(), id, form.AdminNotes); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RedirectWithFlash(c, bookingPath(id), utils.FlashSuccess, MsgNotesUpdated)
}
