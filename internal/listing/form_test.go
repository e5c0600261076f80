package listing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() FormState {
	return FormState{
		Type:         ListingTypeSale,
		Location:     "Leeds",
		PropertyDesc: "3-bed semi",
		KeyElements:  "garden, parking",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      FormState
		wantValid bool
		want      ErrorState
	}{
		{
			name:      "all valid",
			form:      validForm(),
			wantValid: true,
			want: ErrorState{
				FieldType:         "",
				FieldLocation:     "",
				FieldPropertyDesc: "",
				FieldKeyElements:  "",
			},
		},
		{
			name:      "empty form",
			form:      FormState{},
			wantValid: false,
			want: ErrorState{
				FieldType:         "Please select a type",
				FieldLocation:     "Please enter a location",
				FieldPropertyDesc: "Please describe the property",
				FieldKeyElements:  "Please enter key elements",
			},
		},
		{
			name: "whitespace only location",
			form: FormState{
				Type:         ListingTypeRent,
				Location:     "   \t",
				PropertyDesc: "flat",
				KeyElements:  "balcony",
			},
			wantValid: false,
			want: ErrorState{
				FieldType:         "",
				FieldLocation:     "Please enter a location",
				FieldPropertyDesc: "",
				FieldKeyElements:  "",
			},
		},
		{
			name: "type unset only",
			form: FormState{
				Location:     "Leeds",
				PropertyDesc: "3-bed semi",
				KeyElements:  "garden",
			},
			wantValid: false,
			want: ErrorState{
				FieldType:         "Please select a type",
				FieldLocation:     "",
				FieldPropertyDesc: "",
				FieldKeyElements:  "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Validate(tt.form)
			assert.Equal(t, tt.wantValid, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyFieldChange_ClearsOnlyThatField(t *testing.T) {
	st, ok := ApplyValidation(NewState())
	require.False(t, ok)

	next, err := ApplyFieldChange(st, FieldLocation, "Leeds")
	require.NoError(t, err)

	assert.Equal(t, "Leeds", next.Form.Location)
	assert.Equal(t, "", next.Errors[FieldLocation])
	assert.Equal(t, "Please select a type", next.Errors[FieldType])
	assert.Equal(t, "Please describe the property", next.Errors[FieldPropertyDesc])
	assert.Equal(t, "Please enter key elements", next.Errors[FieldKeyElements])

	// the input state is untouched
	assert.Equal(t, "Please enter a location", st.Errors[FieldLocation])
}

func TestApplyFieldChange_ClearsEvenWhenStillInvalid(t *testing.T) {
	st, _ := ApplyValidation(NewState())

	next, err := ApplyFieldChange(st, FieldPropertyDesc, "   ")
	require.NoError(t, err)
	assert.Equal(t, "", next.Errors[FieldPropertyDesc])
}

func TestApplyFieldChange_Rejects(t *testing.T) {
	st := NewState()

	_, err := ApplyFieldChange(st, Field("bedrooms"), "3")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = ApplyFieldChange(st, FieldType, "auction")
	assert.ErrorIs(t, err, ErrInvalidListingType)
}

func TestApplyTypeSelect(t *testing.T) {
	st, _ := ApplyValidation(NewState())

	next := ApplyTypeSelect(st, ListingTypeRent)
	assert.Equal(t, ListingTypeRent, next.Form.Type)
	assert.Equal(t, "", next.Errors[FieldType])
	assert.Equal(t, "Please enter a location", next.Errors[FieldLocation])
}

func TestApplyFormChanges_TouchesChangedFieldsOnly(t *testing.T) {
	st, _ := ApplyValidation(NewState())

	next, err := ApplyFormChanges(st, FormState{Type: ListingTypeSale})
	require.NoError(t, err)

	assert.Equal(t, "", next.Errors[FieldType])
	assert.Equal(t, "Please enter a location", next.Errors[FieldLocation])
	assert.Equal(t, "Please describe the property", next.Errors[FieldPropertyDesc])
	assert.Equal(t, "Please enter key elements", next.Errors[FieldKeyElements])
}

func TestParseField(t *testing.T) {
	f, err := ParseField("keyElements")
	require.NoError(t, err)
	assert.Equal(t, FieldKeyElements, f)

	_, err = ParseField("KeyElements")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestErrorStateStrings(t *testing.T) {
	errs := ErrorState{FieldType: "Please select a type", FieldLocation: ""}
	assert.Equal(t, map[string]string{"type": "Please select a type"}, errs.Strings())
	assert.Empty(t, NewErrorState().Strings())
}
