package handlers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// channelTokenTTL bounds how long a follow-up channel token stays valid
// after a join.
const channelTokenTTL = 12 * time.Hour

// mintChannelToken issues the short-lived HS256 token a player presents when
// subscribing to the follow-up channel.
func mintChannelToken(secret []byte, player string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": player,
		"iat": now.Unix(),
		"exp": now.Add(channelTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign channel token: %w", err)
	}
	return signed, nil
}

// verifyChannelToken validates a channel token and returns the player name
// it was minted for.
func verifyChannelToken(secret []byte, raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("parse channel token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("channel token carries no claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("channel token carries no subject")
	}
	return sub, nil
}
