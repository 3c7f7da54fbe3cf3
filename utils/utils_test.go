package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"5555555555", true},
		{"555-555-5555", true},
		{"(555) 555.5555", true},
		{"555555555", false},
		{"+15555555555", false},
		{"abcdefghij", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePhone(tt.phone), tt.phone)
	}
	assert.Equal(t, "5555555555", NormalizePhone("(555) 555-5555"))
}

func TestValidateZipAndState(t *testing.T) {
	assert.True(t, ValidateZip("07102"))
	assert.False(t, ValidateZip("7102"))
	assert.True(t, ValidateState("nj"))
	assert.False(t, ValidateState("N1"))
}

func TestParseDateAndClock(t *testing.T) {
	d, err := ParseDate("2030-04-01")
	require.NoError(t, err)
	assert.Equal(t, "2030-04-01", FormatDate(d))

	_, err = ParseDate("04/01/2030")
	assert.Error(t, err)

	clock, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, datatypes.NewTime(9, 30, 0, 0), clock)

	clock, err = ParseClock("17:45:10")
	require.NoError(t, err)
	assert.Equal(t, datatypes.NewTime(17, 45, 10, 0), clock)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	assert.Equal(t, time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC),
		BeginningOfDay(time.Date(2030, 4, 1, 23, 59, 0, 0, time.UTC)))
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	for _, header := range []string{"", "Bearer", "Bearer ", "Token abc"} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, ErrMissingBearer, header)
	}
}

func TestAppErrorStatus(t *testing.T) {
	assert.Equal(t, 400, NewValidationError("x").Status())
	assert.Equal(t, 400, NewConflictError("x").Status())
	assert.Equal(t, 401, NewUnauthenticatedError("x").Status())
	assert.Equal(t, 403, NewForbiddenError("x").Status())
	assert.Equal(t, 404, NewNotFoundError("x").Status())
	assert.Equal(t, 500, NewUpstreamError("x", nil).Status())
	assert.Equal(t, ErrorKind(0), KindOf(assert.AnError))
}

func TestPasswordHash(t *testing.T) {
	BcryptCost = 4
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("password123", hash))
	assert.False(t, CheckPasswordHash("password124", hash))
}
