package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity types the model is instructed to use. The product surface is
// Chinese, so the enum values are the literal strings exchanged with the
// model and stored in itineraries.
const (
	ActivityAttraction = "景点"
	ActivityRestaurant = "餐厅"
	ActivityTransport  = "交通"
	ActivityShopping   = "购物"
	ActivityLeisure    = "休闲"
)

// Preference tags a traveler can pick when describing a trip.
const (
	PreferenceFood        = "美食"
	PreferenceCulture     = "文化"
	PreferenceNature      = "自然"
	PreferenceHistory     = "历史"
	PreferenceShopping    = "购物"
	PreferenceAdventure   = "冒险"
	PreferenceRelaxation  = "休闲"
	PreferenceAnime       = "动漫"
	PreferenceArt         = "艺术"
	PreferencePhotography = "摄影"
)

// TravelRequest is the seed for one itinerary. Immutable once submitted.
type TravelRequest struct {
	Destination  string   `json:"destination"`
	Days         int      `json:"days"`
	Budget       float64  `json:"budget"`
	Travelers    int      `json:"travelers"`
	Preferences  []string `json:"preferences"`
	WithChildren bool     `json:"withChildren"`
	StartDate    *string  `json:"startDate,omitempty"` // YYYY-MM-DD
}

// Location is a geocoded point. Attached to activities best-effort; absence
// is valid.
type Location struct {
	Lng              float64 `json:"lng"`
	Lat              float64 `json:"lat"`
	FormattedAddress string  `json:"formattedAddress"`
}

type Activity struct {
	Time          string    `json:"time"` // HH:MM
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	EstimatedCost float64   `json:"estimatedCost"`
	Duration      int       `json:"duration"` // minutes
	Tips          string    `json:"tips"`
	Location      *Location `json:"location,omitempty"`
}

type Accommodation struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Address string  `json:"address"`
	Price   float64 `json:"price"`
}

type DayPlan struct {
	Day           int           `json:"day"` // 1-based, contiguous
	Date          string        `json:"date"`
	Theme         string        `json:"theme"`
	Activities    []Activity    `json:"activities"`
	Accommodation Accommodation `json:"accommodation"`
}

type BudgetBreakdown struct {
	Transportation float64 `json:"transportation"`
	Accommodation  float64 `json:"accommodation"`
	Food           float64 `json:"food"`
	Activities     float64 `json:"activities"`
	Shopping       float64 `json:"shopping"`
	Other          float64 `json:"other"`
	Total          float64 `json:"total"`
}

// TravelPlan is the unit of persistence. ID and CreatedAt are assigned by the
// repository on first save; a plan built for an anonymous caller keeps a nil
// ID and is never stored.
type TravelPlan struct {
	ID                  *uuid.UUID      `json:"id,omitempty"`
	UserID              *uuid.UUID      `json:"userId,omitempty"`
	Title               string          `json:"title"`
	Summary             string          `json:"summary"`
	Itinerary           []DayPlan       `json:"itinerary"`
	Budget              BudgetBreakdown `json:"budget"`
	Tips                []string        `json:"tips"`
	Request             TravelRequest   `json:"request"`
	DestinationLocation *Location       `json:"destinationLocation,omitempty"`
	CreatedAt           time.Time       `json:"createdAt,omitzero"`
	UpdatedAt           time.Time       `json:"updatedAt,omitzero"`
}

// Persisted returns true once the plan has an identity from the store.
func (p *TravelPlan) Persisted() bool {
	return p != nil && p.ID != nil
}
