package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidInterval(t *testing.T) {
	for _, h := range AllowedIntervals {
		assert.True(t, ValidInterval(h), "interval %d should be valid", h)
	}
	for _, h := range []int{0, 2, 4, 6, 8, 10, 12, -1, 24} {
		assert.False(t, ValidInterval(h), "interval %d should be invalid", h)
	}
	assert.True(t, ValidInterval(DefaultIntervalHours))
}

func TestUserJSONNeverExposesPushToken(t *testing.T) {
	token := "apns-device-token"
	user := User{
		ID:        "u1",
		Name:      "Alex",
		Code:      "ABC123",
		PushToken: &token,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "apns-device-token")
	assert.NotContains(t, string(data), "push_token")
}
