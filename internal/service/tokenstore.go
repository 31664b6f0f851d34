package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/internal/domain"
	"github.com/satushop/kaspisync/internal/kaspi"
	"github.com/satushop/kaspisync/internal/repository"
	"github.com/satushop/kaspisync/pkg/errors"
)

// TokenStore manages the per-seller marketplace bearer credential
type TokenStore struct {
	repos  *repository.Repositories
	client kaspi.API
	logger *zap.Logger
}

// NewTokenStore creates a new token store
func NewTokenStore(repos *repository.Repositories, client kaspi.API, logger *zap.Logger) *TokenStore {
	return &TokenStore{
		repos:  repos,
		client: client,
		logger: logger,
	}
}

// IsValid runs the local format check: nonzero length, no embedded
// whitespace. It says nothing about server-side validity.
func (s *TokenStore) IsValid(token string) bool {
	if token == "" {
		return false
	}
	return !strings.ContainsAny(token, " \t\n\r")
}

// Save validates and persists the token on the seller record
func (s *TokenStore) Save(ctx context.Context, sellerID uuid.UUID, token string) error {
	if !s.IsValid(token) {
		return &errors.ErrTokenInvalid{SellerID: sellerID.String()}
	}
	return s.repos.Sellers.SaveToken(ctx, sellerID, token)
}

// Load returns the stored token, or ("", false) when there is none
func (s *TokenStore) Load(ctx context.Context, sellerID uuid.UUID) (string, bool) {
	seller, err := s.repos.Sellers.GetByID(ctx, sellerID)
	if err != nil {
		return "", false
	}
	if seller.KaspiToken == "" {
		return "", false
	}
	return seller.KaspiToken, true
}

// CheckAPIHealth verifies the token server-side with a minimal
// one-item catalog request
func (s *TokenStore) CheckAPIHealth(ctx context.Context, sellerID uuid.UUID) error {
	seller, err := s.repos.Sellers.GetByID(ctx, sellerID)
	if err != nil {
		return err
	}
	if err := requireToken(s, seller); err != nil {
		return err
	}
	_, err = s.client.Products(ctx, authFor(seller), 0, 1)
	return err
}

// authFor builds the outbound credential for a seller
func authFor(seller *domain.Seller) kaspi.Auth {
	return kaspi.Auth{
		SellerID:    seller.ID.String(),
		Token:       seller.KaspiToken,
		HourlyQuota: seller.HourlyQuota,
	}
}

// requireToken fails fast when the seller has no usable token
func requireToken(tokens *TokenStore, seller *domain.Seller) error {
	if seller.KaspiToken == "" {
		return &errors.ErrTokenMissing{SellerID: seller.ID.String()}
	}
	if !tokens.IsValid(seller.KaspiToken) {
		return &errors.ErrTokenInvalid{SellerID: seller.ID.String()}
	}
	return nil
}
