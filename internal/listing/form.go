// Package listing holds the property listing form: its field state,
// submit-time validation and the submission pipeline that turns a valid
// form into generated listing copy.
package listing

import (
	"errors"
	"fmt"
	"strings"
)

// Field names one input of the form.
type Field string

const (
	FieldType         Field = "type"
	FieldLocation     Field = "location"
	FieldPropertyDesc Field = "propertyDesc"
	FieldKeyElements  Field = "keyElements"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldType, FieldLocation, FieldPropertyDesc, FieldKeyElements}

// ListingType is the single enum field. The zero value means unset.
type ListingType string

const (
	ListingTypeUnset ListingType = ""
	ListingTypeSale  ListingType = "sale"
	ListingTypeRent  ListingType = "rent"
)

// ListingTypes is the fixed option set offered by the type selector.
var ListingTypes = []ListingType{ListingTypeSale, ListingTypeRent}

var (
	ErrUnknownField       = errors.New("unknown form field")
	ErrInvalidListingType = errors.New("invalid listing type")
)

var requiredMessages = map[Field]string{
	FieldType:         "Please select a type",
	FieldLocation:     "Please enter a location",
	FieldPropertyDesc: "Please describe the property",
	FieldKeyElements:  "Please enter key elements",
}

// RequiredMessage is the inline message shown when field fails validation.
func RequiredMessage(field Field) string {
	return requiredMessages[field]
}

func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// ParseListingType accepts the selector's option values and the empty
// string (unset).
func ParseListingType(value string) (ListingType, error) {
	switch t := ListingType(value); t {
	case ListingTypeUnset, ListingTypeSale, ListingTypeRent:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidListingType, value)
	}
}

// Label is the human readable option text.
func (t ListingType) Label() string {
	switch t {
	case ListingTypeSale:
		return "Sale"
	case ListingTypeRent:
		return "Rent"
	default:
		return ""
	}
}

// FormState is the raw, unvalidated value of every input.
type FormState struct {
	Type         ListingType `json:"type"`
	Location     string      `json:"location"`
	PropertyDesc string      `json:"propertyDesc"`
	KeyElements  string      `json:"keyElements"`
}

func (f FormState) Value(field Field) string {
	switch field {
	case FieldType:
		return string(f.Type)
	case FieldLocation:
		return f.Location
	case FieldPropertyDesc:
		return f.PropertyDesc
	case FieldKeyElements:
		return f.KeyElements
	default:
		return ""
	}
}

// ErrorState maps each field to its inline message; "" means no error.
type ErrorState map[Field]string

func NewErrorState() ErrorState {
	return make(ErrorState, len(Fields))
}

func (e ErrorState) Clone() ErrorState {
	out := make(ErrorState, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Strings converts to plain string keys for templates and JSON consumers.
func (e ErrorState) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		if v != "" {
			out[string(k)] = v
		}
	}
	return out
}

// Validate checks every field and returns the complete new ErrorState,
// including empty messages for fields that pass, plus the overall verdict.
// Text fields must be non-empty once trimmed; the type only has to be set.
func Validate(form FormState) (ErrorState, bool) {
	errs := NewErrorState()
	valid := true

	check := func(field Field, ok bool) {
		if ok {
			errs[field] = ""
			return
		}
		errs[field] = requiredMessages[field]
		valid = false
	}

	check(FieldType, form.Type != ListingTypeUnset)
	check(FieldLocation, strings.TrimSpace(form.Location) != "")
	check(FieldPropertyDesc, strings.TrimSpace(form.PropertyDesc) != "")
	check(FieldKeyElements, strings.TrimSpace(form.KeyElements) != "")

	return errs, valid
}

// ApplyFieldChange stores value and clears field's error. Nothing is
// validated here; errors only come back on the next submit.
func ApplyFieldChange(state State, field Field, value string) (State, error) {
	next := state.Clone()
	switch field {
	case FieldType:
		t, err := ParseListingType(value)
		if err != nil {
			return state, err
		}
		next.Form.Type = t
	case FieldLocation:
		next.Form.Location = value
	case FieldPropertyDesc:
		next.Form.PropertyDesc = value
	case FieldKeyElements:
		next.Form.KeyElements = value
	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	next.Errors[field] = ""
	return next, nil
}

// ApplyTypeSelect is ApplyFieldChange for the selector, which already
// hands over a typed value.
func ApplyTypeSelect(state State, value ListingType) State {
	next := state.Clone()
	next.Form.Type = value
	next.Errors[FieldType] = ""
	return next
}

// ApplyFormChanges applies a whole posted form, touching only fields whose
// value differs so untouched fields keep their messages.
func ApplyFormChanges(state State, form FormState) (State, error) {
	next := state
	for _, field := range Fields {
		value := form.Value(field)
		if value == next.Form.Value(field) {
			continue
		}
		var err error
		next, err = ApplyFieldChange(next, field, value)
		if err != nil {
			return state, err
		}
	}
	return next, nil
}
