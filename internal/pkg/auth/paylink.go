// internal/pkg/auth/paylink.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

const paymentLinkType = "final_payment"

// ErrInvalidToken is returned for malformed, forged or expired link tokens
var ErrInvalidToken = errors.New("invalid payment link token")

// PaymentLinkClaims is carried by a final payment link
type PaymentLinkClaims struct {
	ProjectID string          `json:"project_id"`
	Balance   decimal.Decimal `json:"balance"`
	TokenType string          `json:"token_type"`
	jwt.RegisteredClaims
}

// PaymentLinkManager signs and verifies final payment link tokens
type PaymentLinkManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewPaymentLinkManager creates a new payment link manager
func NewPaymentLinkManager(secret, issuer string, ttl time.Duration) *PaymentLinkManager {
	return &PaymentLinkManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate signs a token for projectID and its remaining balance
func (m *PaymentLinkManager) Generate(projectID string, balance decimal.Decimal) (string, error) {
	now := m.now().UTC()

	claims := &PaymentLinkClaims{
		ProjectID: projectID,
		Balance:   balance,
		TokenType: paymentLinkType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   "project:" + projectID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign payment link: %w", err)
	}
	return signed, nil
}

// Validate parses a token and checks signature, expiry and type
func (m *PaymentLinkManager) Validate(tokenString string) (*PaymentLinkClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PaymentLinkClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*PaymentLinkClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != paymentLinkType || claims.ProjectID == "" {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}

	return claims, nil
}
