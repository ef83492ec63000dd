package postgres

import (
	"context"
	"fmt"
	"strings"

	"go-compensation-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type offerRepo struct {
	db *pgxpool.Pool
}

func NewOfferRepository(db *pgxpool.Pool) domain.OfferRepository {
	return &offerRepo{db: db}
}

// offerColumns is the joined projection used by every offer query: the offer
// row plus its background, whichever compensation sub-record exists, and the
// company/location display fields.
const offerColumns = `
	o.id, o.profile_id, o.company_id, o.location_id, o.kind, o.received_at,
	b.total_years_of_experience,
	ftc.title,
	ftc.base_salary_amount, ftc.base_salary_currency, ftc.base_salary_base_value,
	ftc.bonus_amount, ftc.bonus_currency, ftc.bonus_base_value,
	ftc.stock_grant_amount, ftc.stock_grant_currency, ftc.stock_grant_base_value,
	ftc.total_comp_amount, ftc.total_comp_currency, ftc.total_comp_base_value,
	ic.title, ic.monthly_salary_amount, ic.monthly_salary_currency, ic.monthly_salary_base_value,
	c.name, l.city, l.state, l.country`

const offerJoins = `
	FROM offers o
	LEFT JOIN offer_backgrounds b ON b.offer_id = o.id
	LEFT JOIN full_time_compensations ftc ON ftc.offer_id = o.id
	LEFT JOIN intern_compensations ic ON ic.offer_id = o.id
	LEFT JOIN companies c ON c.id = o.company_id
	LEFT JOIN locations l ON l.id = o.location_id`

// Descending by whichever compensation field is populated; an offer carries
// exactly one of the two, so ordering by both independently is equivalent to
// ordering by the applicable one.
const offerOrder = ` ORDER BY ftc.total_comp_base_value DESC NULLS LAST, ic.monthly_salary_base_value DESC NULLS LAST`

// FindByProfile returns all offers of a profile, highest compensation first,
// with prior experiences attached to each background.
func (r *offerRepo) FindByProfile(ctx context.Context, profileID string) ([]domain.Offer, error) {
	query := `SELECT` + offerColumns + offerJoins + ` WHERE o.profile_id = $1` + offerOrder

	rows, err := r.db.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers, err := collectOffers(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachPriorExperiences(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// FindCohort returns offers matching the filter, highest compensation first.
// Nil filter fields are not applied; set fields are ANDed.
func (r *offerRepo) FindCohort(ctx context.Context, f domain.OfferFilter) ([]domain.Offer, error) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.ProfileID != nil {
		add("o.profile_id = $%d", *f.ProfileID)
	}
	if f.LocationID != nil {
		add("o.location_id = $%d", *f.LocationID)
	}
	if f.CompanyID != nil {
		add("o.company_id = $%d", *f.CompanyID)
	}
	if f.ReceivedFrom != nil {
		add("o.received_at >= $%d", *f.ReceivedFrom)
	}
	if f.FullTimeTitle != nil {
		add("ftc.title = $%d", *f.FullTimeTitle)
	}
	if f.InternTitle != nil {
		add("ic.title = $%d", *f.InternTitle)
	}
	if f.YearsOfExpMin != nil {
		add("b.total_years_of_experience >= $%d", *f.YearsOfExpMin)
	}
	if f.YearsOfExpMax != nil {
		add("b.total_years_of_experience <= $%d", *f.YearsOfExpMax)
	}

	query := `SELECT` + offerColumns + offerJoins
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += offerOrder

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOffers(rows)
}

// FindByIDs returns the offers with the given ids, highest compensation first
func (r *offerRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Offer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT` + offerColumns + offerJoins + ` WHERE o.id = ANY($1)` + offerOrder

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOffers(rows)
}

func (r *offerRepo) attachPriorExperiences(ctx context.Context, offers []domain.Offer) error {
	var ids []string
	index := make(map[string]*domain.Offer, len(offers))
	for i := range offers {
		if offers[i].Background != nil {
			ids = append(ids, offers[i].ID)
			index[offers[i].ID] = &offers[i]
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query := `SELECT offer_id, company_id, location_id FROM prior_experiences WHERE offer_id = ANY($1) ORDER BY offer_id, position`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var offerID string
		var exp domain.PriorExperience
		if err := rows.Scan(&offerID, &exp.CompanyID, &exp.LocationID); err != nil {
			return err
		}
		if o := index[offerID]; o != nil {
			o.Background.PriorExperiences = append(o.Background.PriorExperiences, exp)
		}
	}
	return rows.Err()
}

// collectOffers scans the joined projection, materializing only the
// sub-records actually present for each row.
func collectOffers(rows pgx.Rows) ([]domain.Offer, error) {
	var offers []domain.Offer
	for rows.Next() {
		var o domain.Offer
		var totalYoe *int
		var ftTitle, baseCur, bonusCur, stockCur, totalCur *string
		var baseAmt, baseBase, bonusAmt, bonusBase *float64
		var stockAmt, stockBase, totalAmt, totalBase *float64
		var icTitle, monthlyCur *string
		var monthlyAmt, monthlyBase *float64
		var companyName, city, state, country *string

		if err := rows.Scan(
			&o.ID, &o.ProfileID, &o.CompanyID, &o.LocationID, &o.Kind, &o.ReceivedAt,
			&totalYoe,
			&ftTitle,
			&baseAmt, &baseCur, &baseBase,
			&bonusAmt, &bonusCur, &bonusBase,
			&stockAmt, &stockCur, &stockBase,
			&totalAmt, &totalCur, &totalBase,
			&icTitle, &monthlyAmt, &monthlyCur, &monthlyBase,
			&companyName, &city, &state, &country,
		); err != nil {
			return nil, err
		}

		if totalYoe != nil {
			o.Background = &domain.Background{TotalYearsOfExperience: totalYoe}
		}
		if ftTitle != nil {
			o.FullTime = &domain.FullTimeCompensation{
				Title:             *ftTitle,
				BaseSalary:        compValue(baseAmt, baseCur, baseBase),
				Bonus:             compValue(bonusAmt, bonusCur, bonusBase),
				StockGrant:        compValue(stockAmt, stockCur, stockBase),
				TotalCompensation: compValue(totalAmt, totalCur, totalBase),
			}
		}
		if icTitle != nil {
			o.Intern = &domain.InternCompensation{
				Title:         *icTitle,
				MonthlySalary: compValue(monthlyAmt, monthlyCur, monthlyBase),
			}
		}
		if companyName != nil {
			o.Company = &domain.Company{ID: o.CompanyID, Name: *companyName}
		}
		if city != nil && state != nil && country != nil {
			o.Location = &domain.Location{ID: o.LocationID, City: *city, State: *state, Country: *country}
		}

		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func compValue(amount *float64, currency *string, base *float64) domain.CompensationValue {
	var v domain.CompensationValue
	if amount != nil {
		v.Amount = *amount
	}
	if currency != nil {
		v.Currency = *currency
	}
	if base != nil {
		v.BaseValue = *base
	}
	return v
}
