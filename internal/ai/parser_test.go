package ai

import (
	"strings"
	"testing"

	"github.com/roamplan/roamplan-backend/internal/domain"
)

func TestParsePlanExtractsEmbeddedJSON(t *testing.T) {
	raw := "好的，以下是为您生成的行程：\n```json\n" +
		`{"title":"东京 3日游","summary":"经典东京之旅","itinerary":[{"day":1,"date":"2026-05-01","theme":"抵达","activities":[],"accommodation":{"name":"新宿酒店","type":"酒店","address":"新宿区","price":600}}],"budget":{"transportation":1500,"accommodation":1800,"food":1500,"activities":900,"shopping":180,"other":120,"total":6000},"tips":["提前购买地铁卡"]}` +
		"\n```\n祝您旅途愉快！"

	req := domain.TravelRequest{Destination: "东京", Days: 3, Budget: 6000, Travelers: 2}
	plan := ParsePlan(raw, req)

	if plan.Title != "东京 3日游" {
		t.Fatalf("title = %q, want %q", plan.Title, "东京 3日游")
	}
	if len(plan.Itinerary) != 1 {
		t.Fatalf("itinerary length = %d, want 1", len(plan.Itinerary))
	}
	if plan.Budget.Total != 6000 {
		t.Fatalf("budget total = %v, want 6000", plan.Budget.Total)
	}
	if len(plan.Tips) != 1 || plan.Tips[0] != "提前购买地铁卡" {
		t.Fatalf("tips = %v", plan.Tips)
	}
	if plan.Request.Destination != "东京" {
		t.Fatalf("request not carried through: %+v", plan.Request)
	}
}

func TestParsePlanFillsDefaultsForMissingFields(t *testing.T) {
	req := domain.TravelRequest{Destination: "大阪", Days: 2, Budget: 3000, Travelers: 1}
	plan := ParsePlan(`{"summary":"只有摘要"}`, req)

	if plan.Title != "大阪 2日游" {
		t.Fatalf("title = %q, want default title", plan.Title)
	}
	if plan.Itinerary == nil || len(plan.Itinerary) != 0 {
		t.Fatalf("itinerary = %v, want empty non-nil slice", plan.Itinerary)
	}
	if plan.Tips == nil || len(plan.Tips) != 0 {
		t.Fatalf("tips = %v, want empty non-nil slice", plan.Tips)
	}
	if plan.Budget != DefaultBudget(3000) {
		t.Fatalf("budget = %+v, want ratio defaults", plan.Budget)
	}
}

func TestParsePlanFallsBackOnUnparseableReply(t *testing.T) {
	start := "2026-04-01"
	req := domain.TravelRequest{Destination: "京都", Days: 2, Budget: 4000, Travelers: 2, StartDate: &start}

	for _, raw := range []string{
		"抱歉，我无法生成行程。",
		"{this is not json}",
		"",
	} {
		plan := ParsePlan(raw, req)

		if plan.Title != "京都 2日游" {
			t.Fatalf("raw %q: title = %q", raw, plan.Title)
		}
		if len(plan.Itinerary) != 2 {
			t.Fatalf("raw %q: itinerary length = %d, want 2", raw, len(plan.Itinerary))
		}
		for i, day := range plan.Itinerary {
			if day.Day != i+1 {
				t.Fatalf("raw %q: day %d numbered %d", raw, i, day.Day)
			}
		}
		if plan.Itinerary[0].Date != "2026-04-01" || plan.Itinerary[1].Date != "2026-04-02" {
			t.Fatalf("raw %q: dates = %q, %q", raw, plan.Itinerary[0].Date, plan.Itinerary[1].Date)
		}
		if got := plan.Itinerary[0].Activities[0].Name; got != "待规划" {
			t.Fatalf("raw %q: placeholder activity = %q", raw, got)
		}
	}
}

func TestDefaultBudgetRatios(t *testing.T) {
	got := DefaultBudget(4000)
	want := domain.BudgetBreakdown{
		Transportation: 1000,
		Accommodation:  1200,
		Food:           1000,
		Activities:     600,
		Shopping:       120,
		Other:          80,
		Total:          4000,
	}
	if got != want {
		t.Fatalf("DefaultBudget(4000) = %+v, want %+v", got, want)
	}
}

func TestDefaultBudgetKeepsRoundingSlack(t *testing.T) {
	// 1001 does not divide cleanly; each bucket rounds on its own and the
	// total stays the caller's figure.
	got := DefaultBudget(1001)
	if got.Total != 1001 {
		t.Fatalf("total = %v, want 1001", got.Total)
	}
	sum := got.Transportation + got.Accommodation + got.Food + got.Activities + got.Shopping + got.Other
	if diff := sum - got.Total; diff < -3 || diff > 3 {
		t.Fatalf("bucket sum %v too far from total %v", sum, got.Total)
	}
}

func TestBuildPlanPromptMentionsRequest(t *testing.T) {
	start := "2026-06-10"
	req := domain.TravelRequest{
		Destination:  "成都",
		Days:         4,
		Budget:       8000,
		Travelers:    3,
		Preferences:  []string{"美食", "文化"},
		WithChildren: true,
		StartDate:    &start,
	}
	prompt := BuildPlanPrompt(req)

	for _, want := range []string{"成都", "4", "8000", "美食", "2026-06-10"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
