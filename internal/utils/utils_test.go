package utils

import (
	"bytes"
	"image"
	"image/png"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.Error(t, CheckPassword(hash, "wrong horse"))

	assert.Error(t, ValidatePasswordStrength("short"))
	assert.NoError(t, ValidatePasswordStrength("long-enough"))
}

func TestRandomCode(t *testing.T) {
	code, err := RandomCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, code)
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString("   "))
	require.NotNil(t, OptionalString(" Nairobi "))
	assert.Equal(t, "Nairobi", *OptionalString(" Nairobi "))
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Asha"}`)), &body))
	assert.Equal(t, "Asha", body.Name)

	err := DecodeJSON(httptest.NewRequest("POST", "/", strings.NewReader("")), &body)
	assert.ErrorIs(t, err, ErrEmptyBody)

	assert.Error(t, DecodeJSON(httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`)), &body))
	assert.Error(t, DecodeJSON(httptest.NewRequest("POST", "/", strings.NewReader(`{} {}`)), &body))
}

func TestValidateUpload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	cfg := DefaultConfig()
	assert.NoError(t, ValidateUpload(buf.Bytes(), cfg))
	assert.ErrorIs(t, ValidateUpload([]byte("plain text"), cfg), ErrInvalidContentType)

	cfg.MaxFileSize = 10
	assert.ErrorIs(t, ValidateUpload(buf.Bytes(), cfg), ErrFileTooLarge)
}
