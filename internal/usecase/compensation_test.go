package usecase

import (
	"fmt"
	"testing"

	"go-compensation-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func fullTimeOffer(id string, totalBase float64) domain.Offer {
	return domain.Offer{
		ID:   id,
		Kind: domain.EmploymentKindFullTime,
		FullTime: &domain.FullTimeCompensation{
			Title:             "Software Engineer",
			TotalCompensation: domain.CompensationValue{Amount: totalBase, Currency: "USD", BaseValue: totalBase},
		},
	}
}

func internOffer(id string, monthlyBase float64) domain.Offer {
	return domain.Offer{
		ID:   id,
		Kind: domain.EmploymentKindIntern,
		Intern: &domain.InternCompensation{
			Title:         "SWE Intern",
			MonthlySalary: domain.CompensationValue{Amount: monthlyBase, Currency: "USD", BaseValue: monthlyBase},
		},
	}
}

func cohortOf(values ...float64) []domain.Offer {
	offers := make([]domain.Offer, len(values))
	for i, v := range values {
		offers[i] = fullTimeOffer(fmt.Sprintf("offer-%d", i), v)
	}
	return offers
}

func TestOfferValue(t *testing.T) {
	t.Run("full-time offers use the total-compensation base value", func(t *testing.T) {
		o := fullTimeOffer("a", 150000)
		assert.Equal(t, 150000.0, OfferValue(&o, 0))
	})

	t.Run("intern offers use the monthly-salary base value", func(t *testing.T) {
		o := internOffer("b", 5000)
		assert.Equal(t, 5000.0, OfferValue(&o, 0))
	})

	t.Run("offers without compensation fall back to the default", func(t *testing.T) {
		o := domain.Offer{ID: "c"}
		assert.Equal(t, 42.0, OfferValue(&o, 42))
	})
}

func TestPercentileRank(t *testing.T) {
	t.Run("degenerate cohorts always score 100", func(t *testing.T) {
		ref := fullTimeOffer("ref", 150000)

		assert.Equal(t, 100.0, PercentileRank(nil, &ref))
		assert.Equal(t, 100.0, PercentileRank(cohortOf(150000), &ref))
		// Single distinct value, regardless of duplicate count or whether
		// the reference matches it
		assert.Equal(t, 100.0, PercentileRank(cohortOf(90000, 90000, 90000), &ref))
	})

	t.Run("top distinct value scores 100 and lowest scores 0", func(t *testing.T) {
		cohort := cohortOf(200000, 180000, 100000)

		top := fullTimeOffer("top", 200000)
		bottom := fullTimeOffer("bottom", 100000)
		assert.Equal(t, 100.0, PercentileRank(cohort, &top))
		assert.Equal(t, 0.0, PercentileRank(cohort, &bottom))
	})

	t.Run("duplicate values collapse into one rank bucket", func(t *testing.T) {
		ref := fullTimeOffer("ref", 150000)

		// Buckets [200k, 180k, 150k, 100k], ref at index 2 of 4
		base := cohortOf(200000, 180000, 150000, 150000, 100000)
		assert.InDelta(t, 100-100.0*2/3, PercentileRank(base, &ref), 1e-9)

		// Inserting more offers at values already present must not move anyone
		padded := cohortOf(200000, 200000, 180000, 150000, 150000, 150000, 100000, 100000)
		assert.InDelta(t, PercentileRank(base, &ref), PercentileRank(padded, &ref), 1e-9)
	})

	t.Run("higher reference values never rank below lower ones", func(t *testing.T) {
		cohort := cohortOf(200000, 180000, 150000, 150000, 100000)

		values := []float64{200000, 180000, 150000, 100000}
		prev := 101.0
		for _, v := range values {
			ref := fullTimeOffer("ref", v)
			p := PercentileRank(cohort, &ref)
			assert.LessOrEqual(t, p, prev, "value %v", v)
			prev = p
		}
	})

	t.Run("intern cohorts rank by monthly salary", func(t *testing.T) {
		cohort := []domain.Offer{
			internOffer("i1", 8000),
			internOffer("i2", 5000),
			internOffer("i3", 3000),
		}
		ref := internOffer("ref", 5000)
		assert.InDelta(t, 50, PercentileRank(cohort, &ref), 1e-9)
	})

	t.Run("reference value absent from the cohort exceeds 100", func(t *testing.T) {
		// Kept behavior: the rank sentinel feeds the formula unclamped
		cohort := cohortOf(200000, 100000)
		ref := fullTimeOffer("ref", 155000)
		assert.Equal(t, 200.0, PercentileRank(cohort, &ref))
	})
}

func TestTopSample(t *testing.T) {
	t.Run("cohorts of at most two offers are returned whole", func(t *testing.T) {
		assert.Len(t, TopSample(nil), 0)
		assert.Len(t, TopSample(cohortOf(100000)), 1)
		assert.Len(t, TopSample(cohortOf(200000, 100000)), 2)
	})

	t.Run("larger cohorts yield two offers at the top decile", func(t *testing.T) {
		cohort := cohortOf(200000, 190000, 180000, 170000, 160000, 150000, 140000, 130000, 120000, 110000)

		sample := TopSample(cohort)
		// ceil(0.1*10) = 1
		assert.Equal(t, []domain.Offer{cohort[1], cohort[2]}, sample)
	})

	t.Run("sample never exceeds two offers", func(t *testing.T) {
		for n := 3; n <= 25; n++ {
			values := make([]float64, n)
			for i := range values {
				values[i] = float64(1000 * (n - i))
			}
			sample := TopSample(cohortOf(values...))
			assert.LessOrEqual(t, len(sample), 2, "cohort size %d", n)
			assert.NotEmpty(t, sample, "cohort size %d", n)
		}
	})

	t.Run("short tail truncates the sample", func(t *testing.T) {
		// n=3: slice starts at ceil(0.3)=1, so two offers remain
		sample := TopSample(cohortOf(300000, 200000, 100000))
		assert.Len(t, sample, 2)
		assert.Equal(t, 200000.0, OfferValue(&sample[0], 0))
	})
}
