package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidRoomToken = errors.New("invalid room token")

// VideoGrant is the room permission block of a LiveKit access token.
type VideoGrant struct {
	Room           string `json:"room,omitempty"`
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

// RoomClaims mirror the claim layout LiveKit servers accept.
type RoomClaims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
}

func (c *RoomClaims) Identity() string { return c.Subject }

// RoomTokenIssuer signs and verifies participant tokens with the API key pair.
type RoomTokenIssuer struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewRoomTokenIssuer(apiKey, apiSecret string, ttl time.Duration) *RoomTokenIssuer {
	return &RoomTokenIssuer{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue returns a token granting identity permission to join room, and the
// time it stops being valid.
func (i *RoomTokenIssuer) Issue(identity, name, room string) (string, time.Time, error) {
	if identity == "" || room == "" {
		return "", time.Time{}, fmt.Errorf("identity and room are required")
	}

	allow := true
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := RoomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: name,
		Video: &VideoGrant{
			Room:           room,
			RoomJoin:       true,
			CanPublish:     &allow,
			CanSubscribe:   &allow,
			CanPublishData: &allow,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.apiSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign room token: %w", err)
	}
	// NumericDate drops sub-second precision
	return signed, expiresAt.Truncate(time.Second), nil
}

func (i *RoomTokenIssuer) Verify(tokenString string) (*RoomClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidRoomToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.apiSecret, nil
	},
		jwt.WithIssuer(i.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoomToken, err)
	}

	claims, ok := token.Claims.(*RoomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidRoomToken)
	}
	if claims.Video == nil || !claims.Video.RoomJoin || claims.Video.Room == "" {
		return nil, fmt.Errorf("%w: no room grant", ErrInvalidRoomToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no identity", ErrInvalidRoomToken)
	}
	return claims, nil
}
