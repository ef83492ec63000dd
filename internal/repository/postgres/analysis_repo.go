package postgres

import (
	"context"
	"errors"

	"go-compensation-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type analysisRepo struct {
	db *pgxpool.Pool
}

func NewAnalysisRepository(db *pgxpool.Pool) domain.AnalysisRepository {
	return &analysisRepo{db: db}
}

// DeleteByProfile removes the profile's analysis. Nested results and sample
// links go with it via ON DELETE CASCADE. Deleting a profile with no
// analysis is a no-op, not an error.
func (r *analysisRepo) DeleteByProfile(ctx context.Context, profileID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM analyses WHERE profile_id = $1`, profileID)
	return err
}

// Create persists the analysis aggregate: the analysis row, the overall and
// per-employer result rows, and the result-to-sample-offer links, all in one
// transaction so a partial aggregate is never visible.
func (r *analysisRepo) Create(ctx context.Context, a *domain.Analysis) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO analyses (id, profile_id, top_offer_id, created_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.ProfileID, a.TopOfferID, a.CreatedAt,
	)
	if err != nil {
		return err
	}

	if a.Overall != nil {
		if err := insertResult(ctx, tx, a.Overall, 0); err != nil {
			return err
		}
	}
	for i := range a.ByCompany {
		if err := insertResult(ctx, tx, &a.ByCompany[i], i+1); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertResult(ctx context.Context, tx pgx.Tx, res *domain.AnalysisResult, position int) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO analysis_results (id, analysis_id, offer_id, company_id, cohort_size, percentile, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.AnalysisID, res.OfferID, res.CompanyID, res.CohortSize, res.Percentile, position,
	)
	if err != nil {
		return err
	}
	for i, offerID := range res.SimilarOfferIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO analysis_result_offers (result_id, offer_id, position) VALUES ($1, $2, $3)`,
			res.ID, offerID, i,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByProfile returns the profile's analysis with its results and sample
// offer ids, or nil when the profile has none.
func (r *analysisRepo) GetByProfile(ctx context.Context, profileID string) (*domain.Analysis, error) {
	var a domain.Analysis
	err := r.db.QueryRow(ctx,
		`SELECT id, profile_id, top_offer_id, created_at FROM analyses WHERE profile_id = $1`,
		profileID,
	).Scan(&a.ID, &a.ProfileID, &a.TopOfferID, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	query := `
		SELECT r.id, r.offer_id, r.company_id, r.cohort_size, r.percentile,
		       COALESCE(array_agg(ro.offer_id ORDER BY ro.position) FILTER (WHERE ro.offer_id IS NOT NULL), '{}')
		FROM analysis_results r
		LEFT JOIN analysis_result_offers ro ON ro.result_id = r.id
		WHERE r.analysis_id = $1
		GROUP BY r.id, r.offer_id, r.company_id, r.cohort_size, r.percentile, r.position
		ORDER BY r.position`

	rows, err := r.db.Query(ctx, query, a.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var res domain.AnalysisResult
		var sampleIDs []string
		if err := rows.Scan(
			&res.ID, &res.OfferID, &res.CompanyID, &res.CohortSize, &res.Percentile,
			pq.Array(&sampleIDs),
		); err != nil {
			return nil, err
		}
		res.AnalysisID = a.ID
		res.SimilarOfferIDs = sampleIDs

		if res.CompanyID == nil {
			overall := res
			a.Overall = &overall
		} else {
			a.ByCompany = append(a.ByCompany, res)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &a, nil
}
