package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roamplan/roamplan-backend/internal/ai"
	"github.com/roamplan/roamplan-backend/internal/domain"
	"github.com/roamplan/roamplan-backend/internal/repository/ports"
)

// ModelClient generates raw text from a prompt. Satisfied by *ai.Client.
type ModelClient interface {
	Generate(ctx context.Context, prompt, systemRole string, opts ai.CallOptions) (string, error)
}

// Geocoder resolves an address (optionally constrained to a city) to a
// location. Satisfied by *amap.Client.
type Geocoder interface {
	Geocode(ctx context.Context, address, city string) (*domain.Location, error)
}

// Progress is one stage update reported to the caller during plan creation.
type Progress struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Percent int    `json:"progress"`
}

type ProgressFunc func(Progress)

const (
	StageAI       = "ai"
	StageGeocode  = "geocode"
	StageSave     = "save"
	StageComplete = "complete"
)

// Per-activity geocoding is raced against this timeout; the create workflow
// never waits longer than this for any single activity.
const activityGeocodeTimeout = 3 * time.Second

type PlanService struct {
	model    ModelClient
	geocoder Geocoder
	plans    ports.PlanRepository

	geocodeTimeout time.Duration
}

func NewPlanService(model ModelClient, geocoder Geocoder, plans ports.PlanRepository) *PlanService {
	return &PlanService{
		model:          model,
		geocoder:       geocoder,
		plans:          plans,
		geocodeTimeout: activityGeocodeTimeout,
	}
}

// Create runs the full create-plan workflow: model generation, destination
// geocode, per-activity geocode fan-out, and persistence when an owner is
// present. Stages 2 and 3 are enrichment and can never fail the workflow;
// a model transport failure or a failed insert aborts it with one error.
func (s *PlanService) Create(ctx context.Context, userID *uuid.UUID, req domain.TravelRequest, onProgress ProgressFunc) (*domain.TravelPlan, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	report := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	report(Progress{Stage: StageAI, Message: "🤖 AI 正在生成行程...", Percent: 10})
	raw, err := s.model.Generate(ctx, ai.BuildPlanPrompt(req), ai.PlannerSystemRole, ai.GenerateOptions)
	if err != nil {
		return nil, fmt.Errorf("生成旅行计划失败，请重试: %w", err)
	}
	plan := ai.ParsePlan(raw, req)

	report(Progress{Stage: StageGeocode, Message: "🗺️ 正在获取地理位置...", Percent: 50})
	if location, err := s.geocoder.Geocode(ctx, req.Destination, ""); err != nil {
		log.Printf("plan: destination geocode failed for %q: %v", req.Destination, err)
	} else {
		plan.DestinationLocation = location
	}

	s.geocodeActivities(ctx, plan)

	report(Progress{Stage: StageSave, Message: "💾 正在保存行程...", Percent: 80})
	if userID != nil {
		id, createdAt, err := s.plans.Insert(ctx, *userID, plan)
		if err != nil {
			return nil, fmt.Errorf("保存行程失败: %w", err)
		}
		plan.ID = &id
		plan.UserID = userID
		plan.CreatedAt = createdAt
	}

	report(Progress{Stage: StageComplete, Message: "✨ 行程创建完成！", Percent: 100})
	return plan, nil
}

// geocodeActivities resolves a location for every activity with an address.
// All lookups run concurrently with no cap, each raced against the fixed
// timeout; rejections and timeouts both resolve to "no location". Each
// goroutine writes only its own activity, and the workflow joins on the
// whole batch.
func (s *PlanService) geocodeActivities(ctx context.Context, plan *domain.TravelPlan) {
	city := plan.Request.Destination

	var wg sync.WaitGroup
	for di := range plan.Itinerary {
		for aj := range plan.Itinerary[di].Activities {
			activity := &plan.Itinerary[di].Activities[aj]
			if strings.TrimSpace(activity.Address) == "" {
				continue
			}
			wg.Add(1)
			go func(activity *domain.Activity) {
				defer wg.Done()

				gctx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
				defer cancel()

				resolved := make(chan *domain.Location, 1)
				go func() {
					location, err := s.geocoder.Geocode(gctx, activity.Address, city)
					if err != nil {
						resolved <- nil
						return
					}
					resolved <- location
				}()

				// The race guards against providers that ignore the
				// context and hang.
				select {
				case location := <-resolved:
					if location != nil {
						activity.Location = location
					}
				case <-gctx.Done():
				}
			}(activity)
		}
	}
	wg.Wait()
}

// Optimize asks the model to rework an existing plan and replaces its
// itinerary, budget, tips, and summary in place. Identity, the originating
// request, and the creation timestamp are preserved. Unlike Create, a model
// failure here surfaces directly; there is no fallback.
func (s *PlanService) Optimize(ctx context.Context, plan *domain.TravelPlan) (*domain.TravelPlan, error) {
	plan.Request.Preferences = normalizePreferences(plan.Request.Preferences)

	raw, err := s.model.Generate(ctx, ai.BuildOptimizePrompt(plan), ai.OptimizerSystemRole, ai.OptimizeOptions)
	if err != nil {
		return nil, fmt.Errorf("优化服务暂时不可用，请稍后重试: %w", err)
	}

	optimized := ai.ParsePlan(raw, plan.Request)
	plan.Itinerary = optimized.Itinerary
	plan.Budget = optimized.Budget
	plan.Tips = optimized.Tips
	plan.Summary = optimized.Summary

	if plan.Persisted() {
		if err := s.plans.UpdateResults(ctx, *plan.ID, plan.Itinerary, plan.Budget, plan.Tips, plan.Summary); err != nil {
			return nil, fmt.Errorf("保存优化结果失败: %w", err)
		}
	}
	return plan, nil
}

// OptimizeByID loads a stored plan, verifies ownership, and optimizes it.
func (s *PlanService) OptimizeByID(ctx context.Context, id, userID uuid.UUID) (*domain.TravelPlan, error) {
	plan, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.Optimize(ctx, plan)
}

func (s *PlanService) Get(ctx context.Context, id, userID uuid.UUID) (*domain.TravelPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.UserID == nil || *plan.UserID != userID {
		return nil, ErrPlanForbidden
	}
	return plan, nil
}

type PlanListResult struct {
	Items  []domain.TravelPlan
	Total  int64
	Limit  int
	Offset int
}

func (s *PlanService) List(ctx context.Context, userID uuid.UUID, limit, offset int) (*PlanListResult, error) {
	limit, offset = normalizePlanPagination(limit, offset)

	items, err := s.plans.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.plans.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PlanListResult{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *PlanService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.plans.Delete(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return ErrPlanNotFound
		}
		return err
	}
	return nil
}

func validateRequest(req domain.TravelRequest) error {
	switch {
	case strings.TrimSpace(req.Destination) == "":
		return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	case req.Days <= 0:
		return fmt.Errorf("%w: days must be positive", ErrInvalidRequest)
	case req.Budget <= 0:
		return fmt.Errorf("%w: budget must be positive", ErrInvalidRequest)
	case req.Travelers <= 0:
		return fmt.Errorf("%w: travelers must be positive", ErrInvalidRequest)
	}
	return nil
}

// normalizePreferences tolerates plans whose preferences were stored as one
// delimited string rather than an array.
func normalizePreferences(preferences []string) []string {
	out := make([]string, 0, len(preferences))
	for _, p := range preferences {
		for _, part := range strings.FieldsFunc(p, func(r rune) bool {
			return r == ',' || r == '、'
		}) {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func normalizePlanPagination(limit, offset int) (int, int) {
	const (
		defaultLimit = 20
		maxLimit     = 100
	)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
