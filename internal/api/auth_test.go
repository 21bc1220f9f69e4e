package api

import (
	"context"
	"testing"
	"time"

	"github.com/skomatsu/workchat/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestUserId(t *testing.T) {
	tcases := []struct {
		name     string
		ctx      context.Context
		userId   int
		expected bool
	}{
		{
			name:     "no user ID",
			ctx:      context.Background(),
			expected: false,
		},
		{
			name:     "user ID set",
			ctx:      WithUserId(context.Background(), 42),
			userId:   42,
			expected: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			userId, ok := UserId(tc.ctx)
			assert.Equal(t, tc.expected, ok, "expected UserId to return %v", tc.expected)
			assert.Equal(t, tc.userId, userId, "expected UserId to return %d", tc.userId)
		})
	}
}

func TestJwtRoundTrip(t *testing.T) {
	app := &WorkChatApp{signingKey: []byte("test-signing-key")}

	token, err := app.createJwtForSession(types.User{Id: 7}, defaultJwtExpiration)
	assert.NoError(t, err)

	userId, err := app.extractUserIdFromToken(token)
	assert.NoError(t, err)
	assert.Equal(t, 7, userId)
}

func TestExtractUserIdFromExpiredToken(t *testing.T) {
	app := &WorkChatApp{signingKey: []byte("test-signing-key")}

	token, err := app.createJwtForSession(types.User{Id: 7}, -time.Minute)
	assert.NoError(t, err)

	_, err = app.extractUserIdFromToken(token)
	assert.Error(t, err, "expired token must not verify")
}

func TestExtractUserIdWithWrongKey(t *testing.T) {
	app := &WorkChatApp{signingKey: []byte("test-signing-key")}
	other := &WorkChatApp{signingKey: []byte("other-signing-key")}

	token, err := app.createJwtForSession(types.User{Id: 7}, defaultJwtExpiration)
	assert.NoError(t, err)

	_, err = other.extractUserIdFromToken(token)
	assert.Error(t, err, "token signed with a different key must not verify")
}
