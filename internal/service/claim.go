package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/YK-03/SharePlate/internal/metrics"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/repository"

	"go.uber.org/zap"
)

// ClaimService moves items from available to claimed. At most one claim
// per item ever succeeds; the repository transaction decides the winner.
type ClaimService struct {
	requests repository.RequestRepository
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
}

// NewClaimService creates a claim service.
func NewClaimService(requests repository.RequestRepository, m *metrics.Metrics, log *zap.SugaredLogger) *ClaimService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ClaimService{requests: requests, metrics: m, log: log.Named("claims")}
}

// Claim attempts to claim itemID for user. It returns the Accepted request
// on success, a Conflict when someone else already holds the item and
// NotFound when the item does not exist.
func (s *ClaimService) Claim(ctx context.Context, user *model.User, itemID int64) (*model.Request, error) {
	const op = "service.Claim"

	if itemID <= 0 {
		return nil, invalid(op, "item_id", "A valid item id is required.")
	}
	if err := Authorize(user, CapClaimItem); err != nil {
		return nil, err
	}

	req, err := s.requests.ClaimItem(ctx, itemID, user.ID)
	switch {
	case err == nil:
		s.metrics.ObserveClaim(metrics.ClaimClaimed)
		s.log.Infow("[ClaimService] Item claimed", "item_id", itemID, "user_id", user.ID, "request_id", req.ID)
		return req, nil
	case errors.Is(err, repository.ErrAlreadyClaimed):
		s.metrics.ObserveClaim(metrics.ClaimConflict)
		return nil, OpError{Op: op, Kind: ErrConflict, Msg: "Item already claimed."}
	case errors.Is(err, repository.ErrNotFound):
		s.metrics.ObserveClaim(metrics.ClaimNotFound)
		return nil, OpError{Op: op, Kind: ErrNotFound, Msg: "Item not found."}
	default:
		s.metrics.ObserveClaim(metrics.ClaimError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

// ListForUser returns the user's requests, oldest first.
func (s *ClaimService) ListForUser(ctx context.Context, user *model.User) ([]model.Request, error) {
	if user == nil {
		return nil, OpError{Op: "service.ListRequests", Kind: ErrUnauthenticated}
	}
	reqs, err := s.requests.ListRequestsByRequester(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service.ListRequests: %w", err)
	}
	return reqs, nil
}
