package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"papertrade/internal/model"
	"papertrade/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	store         store.Store
	issuer        string
	secret        []byte
	ttl           time.Duration
	startingFunds decimal.Decimal
	now           func() time.Time
}

func NewService(st store.Store, issuer string, secret []byte, ttl time.Duration, startingFunds decimal.Decimal) *Service {
	return &Service{
		store:         st,
		issuer:        issuer,
		secret:        secret,
		ttl:           ttl,
		startingFunds: startingFunds,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	var accountID string
	err = s.store.Update(ctx, func(tx store.Tx) error {
		accountID, err = tx.CreateAccount(ctx, model.Account{
			Email:        email,
			PasswordHash: string(hash),
			Funds:        s.startingFunds,
			CreatedAt:    s.now(),
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return accountID, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	var acct model.Account
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		acct, err = tx.AccountByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.signToken(acct.ID)
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	var acct model.Account
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		acct, err = tx.Account(ctx, accountID)
		return err
	})
	return acct, err
}

func (s *Service) signToken(accountID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// ParseToken validates a token and returns the account id it was issued to.
func (s *Service) ParseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Issuer != s.issuer {
		return "", errors.New("invalid issuer")
	}
	if claims.Subject == "" {
		return "", errors.New("invalid subject")
	}
	return claims.Subject, nil
}
