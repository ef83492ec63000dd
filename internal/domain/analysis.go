package domain

import (
	"context"
	"time"
)

// AnalysisResult is one ranking pass: overall when CompanyID is nil,
// per-employer otherwise. CohortSize counts comparable offers after the
// subject's own offers are excluded.
type AnalysisResult struct {
	ID         string  `json:"id"`
	AnalysisID string  `json:"analysis_id"`
	OfferID    string  `json:"offer_id"`
	CompanyID  *string `json:"company_id,omitempty"`
	CohortSize int     `json:"cohort_size"`
	Percentile float64 `json:"percentile"`

	SimilarOfferIDs []string `json:"similar_offer_ids"`
	SimilarOffers   []Offer  `json:"similar_offers,omitempty"`
}

// Analysis is the persisted aggregate: exactly one overall result plus
// zero-or-more per-employer results. At most one live Analysis exists per
// profile; generation replaces any previous one.
type Analysis struct {
	ID         string           `json:"id"`
	ProfileID  string           `json:"profile_id"`
	TopOfferID string           `json:"top_offer_id"`
	Overall    *AnalysisResult  `json:"overall"`
	ByCompany  []AnalysisResult `json:"by_company"`
	CreatedAt  time.Time        `json:"created_at"`
}

// AnalysisRepository defines persistence for analyses. Create must write the
// analysis row, its nested results, and the result-to-sample-offer links in
// a single transaction; partial writes must not be visible.
type AnalysisRepository interface {
	DeleteByProfile(ctx context.Context, profileID string) error
	Create(ctx context.Context, analysis *Analysis) error
	GetByProfile(ctx context.Context, profileID string) (*Analysis, error)
}

// AnalysisUsecase defines the offer-comparison operations
type AnalysisUsecase interface {
	GenerateAnalysis(ctx context.Context, profileID string) (*Analysis, error)
	GetAnalysis(ctx context.Context, profileID string) (*Analysis, error)
}
