package usecase

import (
	"math"

	"go-compensation-backend/internal/domain"
)

// OfferValue normalizes an offer's compensation into the single numeric key
// used for ordering and ranking: full-time offers rank by total-compensation
// base value, intern offers by monthly-salary base value. Currency
// normalization happens upstream and is trusted as-is.
func OfferValue(o *domain.Offer, fallback float64) float64 {
	if o.FullTime != nil {
		return o.FullTime.TotalCompensation.BaseValue
	}
	if o.Intern != nil {
		return o.Intern.MonthlySalary.BaseValue
	}
	return fallback
}

// PercentileRank computes the reference offer's percentile standing among the
// distinct compensation values of the cohort. The cohort must already be
// sorted descending by compensation value (caller contract, not re-validated).
// Duplicate values collapse into one rank bucket, so 100 is the top distinct
// value and 0 the lowest.
//
// When the reference value never matches a bucket, rank stays at its -1
// sentinel and the formula yields a value above 100. That matches the
// historical behavior this service replaces and is kept unclamped.
func PercentileRank(cohort []domain.Offer, ref *domain.Offer) float64 {
	refValue := OfferValue(ref, 0)

	rank := -1
	distinct := 0
	var prev float64
	for i := range cohort {
		v := OfferValue(&cohort[i], 0)
		if distinct == 0 || v != prev {
			if v == refValue {
				rank = distinct
			}
			distinct++
			prev = v
		}
	}

	if distinct <= 1 {
		return 100
	}
	return 100 - (100*float64(rank))/float64(distinct-1)
}

// TopSample picks up to 2 offers roughly at the cohort's 90th percentile as
// illustrative comparables. The cohort is sorted descending, so the slice
// starts at ceil(0.1*n) from the top. Cohorts of size <= 2 are returned whole.
func TopSample(cohort []domain.Offer) []domain.Offer {
	n := len(cohort)
	if n <= 2 {
		return cohort
	}
	idx := int(math.Ceil(0.1 * float64(n)))
	end := idx + 2
	if end > n {
		end = n
	}
	return cohort[idx:end]
}
