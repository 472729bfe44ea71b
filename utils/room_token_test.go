package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestRoomTokenIssuer_IssueVerify(t *testing.T) {
	t.Parallel()

	issuer := NewRoomTokenIssuer("devkey", testSecret, 10*time.Minute)
	token, expiresAt, err := issuer.Issue("listener_abc", "Listener", "podcast-tech-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 2*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "listener_abc", claims.Identity())
	assert.Equal(t, "Listener", claims.Name)
	assert.Equal(t, "devkey", claims.Issuer)
	require.NotNil(t, claims.Video)
	assert.Equal(t, "podcast-tech-1", claims.Video.Room)
	assert.True(t, claims.Video.RoomJoin)
	assert.True(t, *claims.Video.CanPublish)
}

func TestRoomTokenIssuer_IssueRequiresRoomAndIdentity(t *testing.T) {
	t.Parallel()

	issuer := NewRoomTokenIssuer("devkey", testSecret, time.Minute)
	_, _, err := issuer.Issue("", "n", "room")
	assert.Error(t, err)
	_, _, err = issuer.Issue("id", "n", "")
	assert.Error(t, err)
}

func TestRoomTokenIssuer_VerifyRejects(t *testing.T) {
	t.Parallel()

	issuer := NewRoomTokenIssuer("devkey", testSecret, time.Minute)
	valid, _, err := issuer.Issue("listener_1", "", "room")
	require.NoError(t, err)

	expired := NewRoomTokenIssuer("devkey", testSecret, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.Issue("listener_1", "", "room")
	require.NoError(t, err)

	otherKey, _, err := NewRoomTokenIssuer("other", testSecret, time.Minute).Issue("listener_1", "", "room")
	require.NoError(t, err)

	otherSecret, _, err := NewRoomTokenIssuer("devkey", "ffffffffffffffffffffffffffffffff", time.Minute).Issue("listener_1", "", "room")
	require.NoError(t, err)

	noGrant, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RoomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "devkey",
			Subject:   "listener_1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: stale},
		{name: "wrong issuer", token: otherKey},
		{name: "wrong secret", token: otherSecret},
		{name: "no room grant", token: noGrant},
		{name: "tampered", token: valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidRoomToken)
		})
	}
}
