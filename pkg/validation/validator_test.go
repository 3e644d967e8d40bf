package validation

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
)

type sampleDTO struct {
	Description string      `validate:"required,not_blank"`
	Status      string      `validate:"omitempty,request_status"`
	DeviceID    null.Uint64 `validate:"omitempty,gt=0"`
	UserID      null.Uint64 `validate:"required"`
}

func TestValidator(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(sampleDTO{Description: "Течёт клапан", UserID: null.Uint64From(1)}))
	assert.NoError(t, v.Validate(sampleDTO{Description: "x", Status: "In Progress", UserID: null.Uint64From(1)}))

	assert.Error(t, v.Validate(sampleDTO{Description: "   ", UserID: null.Uint64From(1)}))
	assert.Error(t, v.Validate(sampleDTO{Description: "x", Status: "Closed", UserID: null.Uint64From(1)}))
	assert.Error(t, v.Validate(sampleDTO{Description: "x"}))
	assert.Error(t, v.Validate(sampleDTO{Description: "x", UserID: null.Uint64From(1), DeviceID: null.Uint64From(0)}))
}
