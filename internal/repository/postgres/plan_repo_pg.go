package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/roamplan/roamplan-backend/internal/domain"
)

type PlanRepository struct {
	db *sqlx.DB
}

func NewPlanRepo(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// planRow mirrors the travel_plans table. The request fields are flattened
// into columns; itinerary, budget breakdown, and tips live in JSONB.
type planRow struct {
	ID              uuid.UUID      `db:"id"`
	UserID          uuid.UUID      `db:"user_id"`
	Title           string         `db:"title"`
	Destination     string         `db:"destination"`
	Days            int            `db:"days"`
	Budget          float64        `db:"budget"`
	Travelers       int            `db:"travelers"`
	Preferences     pq.StringArray `db:"preferences"`
	WithChildren    bool           `db:"with_children"`
	StartDate       *time.Time     `db:"start_date"`
	Itinerary       []byte         `db:"itinerary"`
	BudgetBreakdown []byte         `db:"budget_breakdown"`
	Tips            []byte         `db:"tips"`
	Summary         string         `db:"summary"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *PlanRepository) Insert(ctx context.Context, userID uuid.UUID, plan *domain.TravelPlan) (uuid.UUID, time.Time, error) {
	itinerary, err := json.Marshal(plan.Itinerary)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	budget, err := json.Marshal(plan.Budget)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	tips, err := json.Marshal(plan.Tips)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}

	var startDate *time.Time
	if plan.Request.StartDate != nil && *plan.Request.StartDate != "" {
		if parsed, perr := time.Parse("2006-01-02", *plan.Request.StartDate); perr == nil {
			startDate = &parsed
		}
	}

	const query = `
		INSERT INTO travel_plans (
			user_id, title, destination, days, budget, travelers,
			preferences, with_children, start_date,
			itinerary, budget_breakdown, tips, summary
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		userID, plan.Title, plan.Request.Destination, plan.Request.Days,
		plan.Request.Budget, plan.Request.Travelers,
		pq.Array(plan.Request.Preferences), plan.Request.WithChildren, startDate,
		itinerary, budget, tips, plan.Summary,
	)

	var (
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &createdAt); err != nil {
		return uuid.Nil, time.Time{}, err
	}
	return id, createdAt, nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.TravelPlan, error) {
	const query = `
		SELECT id, user_id, title, destination, days, budget, travelers,
		       preferences, with_children, start_date,
		       itinerary, budget_breakdown, tips, summary,
		       created_at, updated_at
		FROM travel_plans
		WHERE id = $1
	`
	var row planRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *PlanRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.TravelPlan, error) {
	const query = `
		SELECT id, user_id, title, destination, days, budget, travelers,
		       preferences, with_children, start_date,
		       itinerary, budget_breakdown, tips, summary,
		       created_at, updated_at
		FROM travel_plans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var rows []planRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, err
	}

	plans := make([]domain.TravelPlan, 0, len(rows))
	for _, row := range rows {
		plan, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, nil
}

func (r *PlanRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM travel_plans WHERE user_id = $1`, userID)
	return count, err
}

func (r *PlanRepository) UpdateResults(ctx context.Context, id uuid.UUID, itinerary []domain.DayPlan, budget domain.BudgetBreakdown, tips []string, summary string) error {
	itineraryJSON, err := json.Marshal(itinerary)
	if err != nil {
		return err
	}
	budgetJSON, err := json.Marshal(budget)
	if err != nil {
		return err
	}
	tipsJSON, err := json.Marshal(tips)
	if err != nil {
		return err
	}

	const query = `
		UPDATE travel_plans
		SET itinerary = $2, budget_breakdown = $3, tips = $4, summary = $5,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, itineraryJSON, budgetJSON, tipsJSON, summary)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PlanRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM travel_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (row *planRow) toDomain() (*domain.TravelPlan, error) {
	plan := &domain.TravelPlan{
		ID:        &row.ID,
		UserID:    &row.UserID,
		Title:     row.Title,
		Summary:   row.Summary,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Request: domain.TravelRequest{
			Destination:  row.Destination,
			Days:         row.Days,
			Budget:       row.Budget,
			Travelers:    row.Travelers,
			Preferences:  append([]string(nil), row.Preferences...),
			WithChildren: row.WithChildren,
		},
	}
	if row.StartDate != nil {
		formatted := row.StartDate.Format("2006-01-02")
		plan.Request.StartDate = &formatted
	}

	if len(row.Itinerary) > 0 {
		if err := json.Unmarshal(row.Itinerary, &plan.Itinerary); err != nil {
			return nil, err
		}
	}
	if len(row.BudgetBreakdown) > 0 {
		if err := json.Unmarshal(row.BudgetBreakdown, &plan.Budget); err != nil {
			return nil, err
		}
	}
	if len(row.Tips) > 0 {
		if err := json.Unmarshal(row.Tips, &plan.Tips); err != nil {
			return nil, err
		}
	}
	if plan.Itinerary == nil {
		plan.Itinerary = []domain.DayPlan{}
	}
	if plan.Tips == nil {
		plan.Tips = []string{}
	}
	return plan, nil
}
