package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
)

type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password,omitempty" binding:"required"`
	Next     string `form:"next" json:"next"`
}

type RegisterForm struct {
	Username  string `form:"username" json:"username" binding:"required,max=150"`
	Email     string `form:"email" json:"email" binding:"required,email,max=254"`
	FirstName string `form:"first_name" json:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" json:"last_name" binding:"max=150"`
	Password1 string `form:"password1" json:"password1,omitempty"`
	Password2 string `form:"password2" json:"password2,omitempty"`
}

type BookingForm struct {
	Table           uint   `form:"table" json:"table" binding:"required"`
	Date            string `form:"date" json:"date" binding:"required,isodate"`
	Time            string `form:"time" json:"time" binding:"omitempty,clocktime"`
	NumberOfGuests  int    `form:"number_of_guests" json:"number_of_guests" binding:"required,min=1"`
	SpecialRequests string `form:"special_requests" json:"special_requests" binding:"max=1000"`
}

func (f BookingForm) input(userID uint) services.BookingInput {
	clock := f.Time
	if clock == "" {
		clock = models.DefaultBookingTime
	}
	return services.BookingInput{
		UserID:          userID,
		TableID:         f.Table,
		Date:            f.Date,
		Time:            clock,
		NumberOfGuests:  f.NumberOfGuests,
		SpecialRequests: f.SpecialRequests,
	}
}

// AdminBookingForm adds the owner and status the back office may set.
type AdminBookingForm struct {
	BookingForm
	User   uint                 `form:"user" json:"user"`
	Status models.BookingStatus `form:"status" json:"status" binding:"omitempty,bookingstatus"`
}

type TableForm struct {
	Number   int `form:"number" json:"number" binding:"required,min=1"`
	Capacity int `form:"capacity" json:"capacity" binding:"required,min=1"`
}

type MenuForm struct {
	Name        string              `form:"name" json:"name" binding:"required,max=100"`
	Description string              `form:"description" json:"description"`
	Price       string              `form:"price" json:"price" binding:"required"`
	Category    models.MenuCategory `form:"category" json:"category" binding:"required,menucategory"`
	IsAvailable Checkbox            `form:"is_available" json:"is_available"`
	ImageURL    string              `form:"image_url" json:"image_url" binding:"omitempty,url"`
	RemoveImage Checkbox            `form:"remove_image" json:"remove_image"`
}

type NotesForm struct {
	AdminNotes string `form:"admin_notes" json:"admin_notes" binding:"max=2000"`
}

// Checkbox accepts the values an HTML checkbox or a JSON client may send.
type Checkbox bool

func (b *Checkbox) UnmarshalParam(param string) error {
	switch strings.ToLower(strings.TrimSpace(param)) {
	case "on", "true", "1", "yes":
		*b = true
	case "", "off", "false", "0", "no":
		*b = false
	default:
		return fmt.Errorf("invalid checkbox value %q", param)
	}
	return nil
}

func (b *Checkbox) UnmarshalJSON(data []byte) error {
	return b.UnmarshalParam(strings.Trim(string(data), `"`))
}

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules and makes validation
// errors carry form field names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, ok := services.NormalizeDate(fl.Field().String())
			return ok
		})
		v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
			_, ok := services.NormalizeTime(fl.Field().String())
			return ok
		})
		v.RegisterValidation("bookingstatus", func(fl validator.FieldLevel) bool {
			return models.BookingStatus(fl.Field().String()).Valid()
		})
		v.RegisterValidation("menucategory", func(fl validator.FieldLevel) bool {
			return models.MenuCategory(fl.Field().String()).Valid()
		})
	})
}

// bindingErrors turns a binding failure into per-field messages.
func bindingErrors(err error) map[string][]string {
	fe := &services.FormError{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.AddNonField("Please correct the errors below.")
		return fe.Map()
	}
	for _, e := range verrs {
		fe.Add(e.Field(), fieldMessage(e))
	}
	return fe.Map()
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return services.MsgRequired
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this value has at least %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this value has at most %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "isodate":
		return "Enter a valid date."
	case "clocktime":
		return "Enter a valid time."
	case "bookingstatus", "menucategory", "oneof":
		return services.MsgInvalidChoice
	}
	return "Enter a valid value."
}
