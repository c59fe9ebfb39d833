package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRandomIntInRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		n := RandomIntInRange(1000, 9999)
		require.GreaterOrEqual(t, n, int64(1000))
		require.LessOrEqual(t, n, int64(9999))
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	PasswordHashCost = bcrypt.MinCost
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("s3cret-pass", hash))
	require.False(t, CheckPasswordHash("wrong", hash))
}

func TestCountryForDialCode(t *testing.T) {
	require.Equal(t, "Sénégal", CountryForDialCode("+221"))
	require.Equal(t, UnknownCountry, CountryForDialCode("+1"))
}

func TestHandleAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleAppError(rec, NotFound("Prospect not found"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"not_found"`)

	rec = httptest.NewRecorder()
	HandleAppError(rec, ErrInvalidEmail)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
