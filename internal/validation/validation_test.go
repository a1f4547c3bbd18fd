package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string   `json:"email" validate:"required,email"`
	Name   string   `json:"name" validate:"min=2,max=5"`
	Weight *float64 `json:"weight" validate:"omitempty,gte=0"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	negative := -1.0
	err := ValidateStruct(&sample{Email: "nope", Name: "x", Weight: &negative})
	require.Error(t, err)

	var fields Errors
	require.ErrorAs(t, err, &fields)
	got := fields.Fields()
	assert.Contains(t, got, "email")
	assert.Contains(t, got, "name")
	assert.Contains(t, got, "weight")
}

func TestValidateStructAcceptsValidInput(t *testing.T) {
	assert.NoError(t, ValidateStruct(&sample{Email: "a@b.co", Name: "Ann"}))
	assert.NoError(t, ValidateStruct(nil))
	assert.Error(t, ValidateStruct("not a struct"))
}
