package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenCarriesIdentity(t *testing.T) {
	id := Identity{
		UserID:        42,
		Username:      "soldier",
		Role:          "center_admin",
		CenterID:      7,
		IsCenterAdmin: true,
		IsActive:      true,
	}
	at, err := NewAccessToken("test-secret", id, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if at.Token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(at.Exp); remaining < 14*time.Minute || remaining > 16*time.Minute {
		t.Fatalf("expiry %v away, want ~15m", remaining)
	}

	parsed, err := jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		t.Fatal("token invalid after parse")
	}
	if claims["sub"] != float64(42) || claims["username"] != "soldier" {
		t.Fatalf("identity claims = %v/%v", claims["sub"], claims["username"])
	}
	if claims["role"] != "center_admin" || claims["center_id"] != float64(7) {
		t.Fatalf("scope claims = %v/%v", claims["role"], claims["center_id"])
	}
	if claims["is_center_admin"] != true || claims["is_active"] != true || claims["is_locked"] != false {
		t.Fatalf("flag claims = %v/%v/%v",
			claims["is_center_admin"], claims["is_active"], claims["is_locked"])
	}
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("right-secret", Identity{UserID: 1}, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte("wrong-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err == nil {
		t.Fatal("token verified under the wrong secret")
	}
}

func TestNewRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d, want 96 hex chars", len(rt.Raw))
	}
	if remaining := time.Until(rt.Exp); remaining < 6*24*time.Hour {
		t.Fatalf("expiry %v away, want ~7 days", remaining)
	}

	other, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if rt.Raw == other.Raw {
		t.Fatal("two refresh tokens share the same raw value")
	}
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("some-token")
	h2 := HashRefreshRaw("some-token")
	if h1 != h2 {
		t.Fatal("hash not deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(h1))
	}
	if h1 == HashRefreshRaw("other-token") {
		t.Fatal("distinct tokens collide")
	}
	if h1 == "some-token" {
		t.Fatal("hash equal to input")
	}
}

func TestNewSessionKey(t *testing.T) {
	k1, err := NewSessionKey()
	if err != nil {
		t.Fatalf("NewSessionKey: %v", err)
	}
	if len(k1) != 40 {
		t.Fatalf("key length = %d, want 40", len(k1))
	}
	k2, _ := NewSessionKey()
	if k1 == k2 {
		t.Fatal("two session keys collide")
	}
}
