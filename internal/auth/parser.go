package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fieldwise/visits-service/internal/model"
)

// Parser validates HMAC-signed access tokens and extracts the caller.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type claims struct {
	Role     string `json:"role"`
	WorkerID string `json:"worker_id,omitempty"`
	jwt.RegisteredClaims
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return model.Principal{}, fmt.Errorf("invalid token")
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid subject: %w", err)
	}

	principal := model.Principal{
		UserID: userID,
		Role:   model.Role(c.Role),
	}
	if c.WorkerID != "" {
		workerID, err := uuid.Parse(c.WorkerID)
		if err != nil {
			return model.Principal{}, fmt.Errorf("invalid worker_id claim: %w", err)
		}
		principal.WorkerID = &workerID
	}
	return principal, nil
}
