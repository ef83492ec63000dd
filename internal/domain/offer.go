package domain

import (
	"context"
	"errors"
	"time"
)

// Common domain errors
var ErrNotFound = errors.New("resource not found")

// Employment kind constants
const (
	EmploymentKindFullTime = "full-time"
	EmploymentKindIntern   = "intern"
)

// CompensationValue is an amount in its original currency plus a normalized
// base value in a common reference unit. All ranking compares BaseValue only.
type CompensationValue struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	BaseValue float64 `json:"base_value"`
}

// FullTimeCompensation is the compensation payload of a full-time offer
type FullTimeCompensation struct {
	Title             string            `json:"title"`
	BaseSalary        CompensationValue `json:"base_salary"`
	Bonus             CompensationValue `json:"bonus"`
	StockGrant        CompensationValue `json:"stock_grant"`
	TotalCompensation CompensationValue `json:"total_compensation"`
}

// InternCompensation is the compensation payload of an intern offer
type InternCompensation struct {
	Title         string            `json:"title"`
	MonthlySalary CompensationValue `json:"monthly_salary"`
}

// PriorExperience is a single prior position on a background record
type PriorExperience struct {
	CompanyID  string `json:"company_id"`
	LocationID string `json:"location_id"`
}

// Background holds the experience data attached to an offer.
// TotalYearsOfExperience is mandatory for cohort matching.
type Background struct {
	TotalYearsOfExperience *int              `json:"total_years_of_experience"`
	PriorExperiences       []PriorExperience `json:"prior_experiences,omitempty"`
}

type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Location struct {
	ID      string `json:"id"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Offer is a single compensation package received by a person.
// Exactly one of FullTime / Intern is populated, matching Kind.
type Offer struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profile_id"`
	CompanyID  string    `json:"company_id"`
	LocationID string    `json:"location_id"`
	Kind       string    `json:"kind"` // full-time | intern
	ReceivedAt time.Time `json:"received_at"`

	Background *Background           `json:"background,omitempty"`
	FullTime   *FullTimeCompensation `json:"full_time,omitempty"`
	Intern     *InternCompensation   `json:"intern,omitempty"`

	// Joined data for responses
	Company  *Company  `json:"company,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// OfferFilter expresses the cohort-matching predicate in store terms.
// Nil fields are not applied. All set fields are ANDed.
type OfferFilter struct {
	ProfileID     *string
	LocationID    *string
	CompanyID     *string
	ReceivedFrom  *time.Time // inclusive lower bound, no upper bound
	FullTimeTitle *string
	InternTitle   *string
	YearsOfExpMin *int // inclusive
	YearsOfExpMax *int // inclusive
}

// OfferRepository defines data access for offers. Implementations return
// offers ordered descending by full-time total-compensation base value and
// intern monthly-salary base value independently; since exactly one of the
// two is populated per offer this is descending order by the applicable one.
type OfferRepository interface {
	FindByProfile(ctx context.Context, profileID string) ([]Offer, error)
	FindCohort(ctx context.Context, filter OfferFilter) ([]Offer, error)
	FindByIDs(ctx context.Context, ids []string) ([]Offer, error)
}
