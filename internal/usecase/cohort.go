package usecase

import (
	"context"

	"go-compensation-backend/internal/domain"
	"go-compensation-backend/pkg/apperror"
)

// cohortMatcher resolves the set of offers comparable to a reference offer.
// Comparable means: same location record, received within the 12 months up to
// the reference offer's date (or any later date), same title for the
// reference's employment kind, and total years of experience within one year
// of the reference's. An optional employer id narrows the cohort to a single
// company for the per-employer pass.
type cohortMatcher struct {
	offerRepo domain.OfferRepository
}

// FindCohort returns the cohort sorted descending by compensation value.
// Experience data is mandatory: a reference offer without a background or a
// known years-of-experience total cannot be matched.
func (m *cohortMatcher) FindCohort(ctx context.Context, ref *domain.Offer, companyID *string) ([]domain.Offer, error) {
	if ref.Background == nil || ref.Background.TotalYearsOfExperience == nil {
		return nil, apperror.NotFound("Years of experience not found")
	}

	yoe := *ref.Background.TotalYearsOfExperience
	minYoe := yoe - 1
	if minYoe < 0 {
		minYoe = 0
	}
	maxYoe := yoe + 1
	receivedFrom := ref.ReceivedAt.AddDate(-1, 0, 0)

	filter := domain.OfferFilter{
		LocationID:    &ref.LocationID,
		CompanyID:     companyID,
		ReceivedFrom:  &receivedFrom,
		YearsOfExpMin: &minYoe,
		YearsOfExpMax: &maxYoe,
	}

	// Title comparison applies to the sub-record of the reference's own
	// employment kind; the other kind's title field is left unset.
	switch {
	case ref.FullTime != nil:
		filter.FullTimeTitle = &ref.FullTime.Title
	case ref.Intern != nil:
		filter.InternTitle = &ref.Intern.Title
	}

	return m.offerRepo.FindCohort(ctx, filter)
}
