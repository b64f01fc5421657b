package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/roamplan/roamplan-backend/internal/domain"
)

// ParsePlan extracts the itinerary object embedded in a free-text model reply
// and shapes it into a TravelPlan. It never fails: anything unparseable
// collapses into the deterministic fallback from DefaultPlan, so the caller
// always receives a structurally valid plan.
func ParsePlan(raw string, req domain.TravelRequest) *domain.TravelPlan {
	extracted, ok := extractJSON(raw)
	if !ok {
		return DefaultPlan(req)
	}

	var decoded struct {
		Title     string                  `json:"title"`
		Summary   string                  `json:"summary"`
		Itinerary []domain.DayPlan        `json:"itinerary"`
		Budget    *domain.BudgetBreakdown `json:"budget"`
		Tips      []string                `json:"tips"`
	}
	if err := json.Unmarshal([]byte(extracted), &decoded); err != nil {
		return DefaultPlan(req)
	}

	plan := &domain.TravelPlan{
		Title:     decoded.Title,
		Summary:   decoded.Summary,
		Itinerary: decoded.Itinerary,
		Tips:      decoded.Tips,
		Request:   req,
	}
	if plan.Title == "" {
		plan.Title = defaultTitle(req)
	}
	if decoded.Budget != nil {
		plan.Budget = *decoded.Budget
	} else {
		plan.Budget = DefaultBudget(req.Budget)
	}
	if plan.Itinerary == nil {
		plan.Itinerary = []domain.DayPlan{}
	}
	if plan.Tips == nil {
		plan.Tips = []string{}
	}
	return plan
}

// extractJSON returns the greedy outermost brace-delimited substring: from
// the first '{' to the last '}'.
func extractJSON(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// DefaultBudget splits a total budget across the six buckets using fixed
// ratios, rounding each bucket independently. The buckets are not
// re-normalized afterwards, so they may not re-sum exactly to the total;
// that slack is accepted.
func DefaultBudget(total float64) domain.BudgetBreakdown {
	return domain.BudgetBreakdown{
		Transportation: math.Round(total * 0.25),
		Accommodation:  math.Round(total * 0.30),
		Food:           math.Round(total * 0.25),
		Activities:     math.Round(total * 0.15),
		Shopping:       math.Round(total * 0.03),
		Other:          math.Round(total * 0.02),
		Total:          total,
	}
}

// DefaultPlan deterministically builds a placeholder plan: one day per
// requested day, each with a single to-be-planned activity and an unbooked
// accommodation. Used whenever the model is unreachable or its reply cannot
// be parsed.
func DefaultPlan(req domain.TravelRequest) *domain.TravelPlan {
	start := time.Now()
	if req.StartDate != nil && *req.StartDate != "" {
		if parsed, err := time.Parse("2006-01-02", *req.StartDate); err == nil {
			start = parsed
		}
	}

	itinerary := make([]domain.DayPlan, 0, req.Days)
	for i := 0; i < req.Days; i++ {
		date := start.AddDate(0, 0, i)
		itinerary = append(itinerary, domain.DayPlan{
			Day:   i + 1,
			Date:  date.Format("2006-01-02"),
			Theme: fmt.Sprintf("第%d天", i+1),
			Activities: []domain.Activity{
				{
					Time:          "09:00",
					Type:          domain.ActivityAttraction,
					Name:          "待规划",
					Description:   "请手动添加景点",
					Address:       req.Destination,
					EstimatedCost: 0,
					Duration:      180,
					Tips:          "",
				},
			},
			Accommodation: domain.Accommodation{
				Name:    "待预订",
				Type:    "酒店",
				Address: req.Destination,
				Price:   0,
			},
		})
	}

	return &domain.TravelPlan{
		Title:     defaultTitle(req),
		Summary:   "行程规划中，请稍后查看详细安排",
		Itinerary: itinerary,
		Budget:    DefaultBudget(req.Budget),
		Tips:      []string{},
		Request:   req,
	}
}

func defaultTitle(req domain.TravelRequest) string {
	return fmt.Sprintf("%s %d日游", req.Destination, req.Days)
}
