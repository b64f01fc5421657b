package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/roamplan/roamplan-backend/internal/domain"
)

type PlanRepository interface {
	// Insert stores a finished plan for its owning user and returns the
	// generated identity and creation timestamp.
	Insert(ctx context.Context, userID uuid.UUID, plan *domain.TravelPlan) (uuid.UUID, time.Time, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.TravelPlan, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.TravelPlan, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// UpdateResults replaces the model-produced parts of a plan in place.
	// Identity, request fields, and created_at are untouched.
	UpdateResults(ctx context.Context, id uuid.UUID, itinerary []domain.DayPlan, budget domain.BudgetBreakdown, tips []string, summary string) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}
