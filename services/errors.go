package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPastBooking       = errors.New("booking date has passed")
	ErrTableHasBookings  = errors.New("table has bookings")
	ErrSlotTaken         = errors.New(MsgSlotTaken)
)

const (
	MsgSlotTaken     = "This table is already booked for the selected time."
	MsgOverCapacity  = "The number of guests exceeds the table capacity."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgRequired      = "This field is required."

	// NonFieldKey holds errors that belong to the form as a whole.
	NonFieldKey = "__all__"
)

// FormError collects validation failures per field plus cross-field ones.
type FormError struct {
	Fields   map[string][]string
	NonField []string
}

func (e *FormError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *FormError) AddNonField(msg string) {
	e.NonField = append(e.NonField, msg)
}

func (e *FormError) Empty() bool {
	return e == nil || (len(e.Fields) == 0 && len(e.NonField) == 0)
}

// Map flattens the errors for rendering, non-field errors under NonFieldKey.
func (e *FormError) Map() map[string][]string {
	out := make(map[string][]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if len(e.NonField) > 0 {
		out[NonFieldKey] = e.NonField
	}
	return out
}

func (e *FormError) Error() string {
	var parts []string
	parts = append(parts, e.NonField...)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrSlotTaken) match a form error that carries the
// slot conflict, whether it came from the check or from the unique index.
func (e *FormError) Is(target error) bool {
	if target != ErrSlotTaken {
		return false
	}
	for _, msg := range e.NonField {
		if msg == MsgSlotTaken {
			return true
		}
	}
	return false
}

// AsFormError unwraps err into a *FormError.
func AsFormError(err error) (*FormError, bool) {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
