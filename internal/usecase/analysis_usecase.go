package usecase

import (
	"context"
	"time"

	"go-compensation-backend/internal/domain"
	"go-compensation-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type analysisUsecase struct {
	offerRepo    domain.OfferRepository
	analysisRepo domain.AnalysisRepository
	matcher      cohortMatcher
	validate     *validator.Validate
}

// NewAnalysisUsecase creates a new analysis usecase
func NewAnalysisUsecase(
	offerRepo domain.OfferRepository,
	analysisRepo domain.AnalysisRepository,
	validate *validator.Validate,
) domain.AnalysisUsecase {
	return &analysisUsecase{
		offerRepo:    offerRepo,
		analysisRepo: analysisRepo,
		matcher:      cohortMatcher{offerRepo: offerRepo},
		validate:     validate,
	}
}

// GenerateAnalysis runs the full offer-comparison flow for a profile: one
// overall pass ranking the profile's highest offer against all comparable
// offers, plus one pass per distinct employer among the profile's offers
// ranking that employer's offer against comparable offers at that employer.
// Any previous analysis for the profile is removed first; either a complete
// new analysis is persisted or nothing is.
func (u *analysisUsecase) GenerateAnalysis(ctx context.Context, profileID string) (*domain.Analysis, error) {
	if err := u.requireOwnership(ctx, profileID); err != nil {
		return nil, err
	}
	if err := u.validate.Var(profileID, "required,uuid4"); err != nil {
		return nil, apperror.BadRequest("Invalid profile id")
	}

	// 1. Reset: at most one live analysis per profile, no history kept.
	// Deletion is unconditional, even if a later step fails.
	if err := u.analysisRepo.DeleteByProfile(ctx, profileID); err != nil {
		return nil, apperror.Internal(err)
	}

	// 2. Load the profile's offers, highest compensation first
	offers, err := u.offerRepo.FindByProfile(ctx, profileID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if len(offers) == 0 {
		return nil, apperror.NotFound("No offers found")
	}

	ownIDs := make(map[string]bool, len(offers))
	for i := range offers {
		ownIDs[offers[i].ID] = true
	}

	// 3. Overall pass on the single highest offer, employer-agnostic
	topOffer := &offers[0]
	overall, err := u.analyzeOffer(ctx, topOffer, nil, ownIDs)
	if err != nil {
		return nil, err
	}

	// 4. One reference offer per distinct employer, keeping the first
	// (highest-compensation) offer seen for each. Result order is insertion
	// order of first appearance, not salary order.
	var companyIDs []string
	refByCompany := make(map[string]*domain.Offer, len(offers))
	for i := range offers {
		id := offers[i].CompanyID
		if _, ok := refByCompany[id]; !ok {
			companyIDs = append(companyIDs, id)
			refByCompany[id] = &offers[i]
		}
	}

	// 5. Per-employer passes fan out concurrently. Each pass is read-only;
	// the only shared state is the read-only ownIDs set. The first failure
	// cancels the rest and aborts the whole request.
	byCompany := make([]domain.AnalysisResult, len(companyIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, companyID := range companyIDs {
		i, companyID := i, companyID
		g.Go(func() error {
			result, err := u.analyzeOffer(gctx, refByCompany[companyID], &companyID, ownIDs)
			if err != nil {
				return err
			}
			result.CompanyID = &companyID
			byCompany[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 6. Persist the aggregate in one transaction
	analysis := &domain.Analysis{
		ID:         uuid.NewString(),
		ProfileID:  profileID,
		TopOfferID: topOffer.ID,
		Overall:    overall,
		ByCompany:  byCompany,
		CreatedAt:  time.Now().UTC(),
	}
	linkResults(analysis)

	if err := u.analysisRepo.Create(ctx, analysis); err != nil {
		return nil, apperror.Internal(err)
	}
	return analysis, nil
}

// GetAnalysis returns the profile's persisted analysis with sample offers hydrated
func (u *analysisUsecase) GetAnalysis(ctx context.Context, profileID string) (*domain.Analysis, error) {
	if err := u.requireOwnership(ctx, profileID); err != nil {
		return nil, err
	}

	analysis, err := u.analysisRepo.GetByProfile(ctx, profileID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if analysis == nil {
		return nil, apperror.NotFound("Analysis not found")
	}

	if err := u.hydrateSamples(ctx, analysis); err != nil {
		return nil, apperror.Internal(err)
	}
	return analysis, nil
}

// analyzeOffer runs one matching/ranking/sampling pass for a reference offer.
// The percentile is computed over the raw cohort; the subject's own offers
// are then excluded before the cohort size is recorded and the top sample
// drawn, so a result never exposes the subject's own offers as comparables.
func (u *analysisUsecase) analyzeOffer(ctx context.Context, ref *domain.Offer, companyID *string, ownIDs map[string]bool) (*domain.AnalysisResult, error) {
	cohort, err := u.matcher.FindCohort(ctx, ref, companyID)
	if err != nil {
		return nil, err
	}

	percentile := PercentileRank(cohort, ref)

	peers := make([]domain.Offer, 0, len(cohort))
	for i := range cohort {
		if !ownIDs[cohort[i].ID] {
			peers = append(peers, cohort[i])
		}
	}

	sample := TopSample(peers)
	sampleIDs := make([]string, len(sample))
	for i := range sample {
		sampleIDs[i] = sample[i].ID
	}

	return &domain.AnalysisResult{
		ID:              uuid.NewString(),
		OfferID:         ref.ID,
		CohortSize:      len(peers),
		Percentile:      percentile,
		SimilarOfferIDs: sampleIDs,
		SimilarOffers:   sample,
	}, nil
}

// hydrateSamples loads the sample offers referenced by a stored analysis
func (u *analysisUsecase) hydrateSamples(ctx context.Context, analysis *domain.Analysis) error {
	var ids []string
	if analysis.Overall != nil {
		ids = append(ids, analysis.Overall.SimilarOfferIDs...)
	}
	for i := range analysis.ByCompany {
		ids = append(ids, analysis.ByCompany[i].SimilarOfferIDs...)
	}
	if len(ids) == 0 {
		return nil
	}

	offers, err := u.offerRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.Offer, len(offers))
	for i := range offers {
		byID[offers[i].ID] = offers[i]
	}

	fill := func(r *domain.AnalysisResult) {
		r.SimilarOffers = make([]domain.Offer, 0, len(r.SimilarOfferIDs))
		for _, id := range r.SimilarOfferIDs {
			if o, ok := byID[id]; ok {
				r.SimilarOffers = append(r.SimilarOffers, o)
			}
		}
	}
	if analysis.Overall != nil {
		fill(analysis.Overall)
	}
	for i := range analysis.ByCompany {
		fill(&analysis.ByCompany[i])
	}
	return nil
}

// requireOwnership enforces that the authenticated user is the subject profile
func (u *analysisUsecase) requireOwnership(ctx context.Context, profileID string) error {
	ctxUserID, ok := ctx.Value(domain.KeyUserID).(string)
	if !ok || ctxUserID == "" {
		return apperror.Unauthorized("User not authenticated")
	}
	if ctxUserID != profileID {
		return apperror.Forbidden("You can only analyze your own offers")
	}
	return nil
}

// linkResults stamps the analysis id onto its nested results
func linkResults(a *domain.Analysis) {
	if a.Overall != nil {
		a.Overall.AnalysisID = a.ID
	}
	for i := range a.ByCompany {
		a.ByCompany[i].AnalysisID = a.ID
	}
}
