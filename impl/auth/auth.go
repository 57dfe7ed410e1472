package auth

import (
	"errors"
	"fmt"
	"time"

	"dojohub/entity"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")
var ErrBadCredentials = errors.New("invalid email or password")

type Database interface {
	GetUserByEmail(email string) (*entity.User, error)
	GetUserById(id string) (*entity.User, error)
}

// Claims carries the session identity; the full user record is loaded
// from the database on every request so role changes take effect without
// waiting for token expiry.
type Claims struct {
	UserId string `json:"user_id"`
	Gym    string `json:"gym"`
	jwt.RegisteredClaims
}

type Auth struct {
	db       Database
	secret   []byte
	tokenTTL time.Duration
}

func New(db Database, secret string, ttlHours int) *Auth {
	return &Auth{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: time.Duration(ttlHours) * time.Hour,
	}
}

// Login checks the password and issues a signed session token.
func (a *Auth) Login(email, password string) (string, *entity.User, error) {
	if a.db == nil {
		return "", nil, fmt.Errorf("database not connected")
	}
	user, err := a.db.GetUserByEmail(email)
	if err != nil {
		return "", nil, ErrBadCredentials
	}
	if !user.Active {
		return "", nil, ErrBadCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrBadCredentials
	}

	now := time.Now()
	claims := Claims{
		UserId: user.Id.Hex(),
		Gym:    user.Gym,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, user, nil
}

// UserByToken resolves a bearer token to its user record.
func (a *Auth) UserByToken(tokenString string) (*entity.User, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return a.db.GetUserById(claims.UserId)
}

// HashPassword produces the stored form of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
