package usecase_test

import (
	"context"
	"testing"
	"time"

	"go-compensation-backend/internal/domain"
	"go-compensation-backend/internal/usecase"
	"go-compensation-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock Repositories
type MockOfferRepo struct {
	mock.Mock
}

func (m *MockOfferRepo) FindByProfile(ctx context.Context, profileID string) ([]domain.Offer, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func (m *MockOfferRepo) FindCohort(ctx context.Context, filter domain.OfferFilter) ([]domain.Offer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Offer), args.Error(1)
}

func (m *MockOfferRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Offer, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Offer), args.Error(1)
}

type MockAnalysisRepo struct {
	mock.Mock
}

func (m *MockAnalysisRepo) DeleteByProfile(ctx context.Context, profileID string) error {
	return m.Called(ctx, profileID).Error(0)
}

func (m *MockAnalysisRepo) Create(ctx context.Context, analysis *domain.Analysis) error {
	return m.Called(ctx, analysis).Error(0)
}

func (m *MockAnalysisRepo) GetByProfile(ctx context.Context, profileID string) (*domain.Analysis, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analysis), args.Error(1)
}

const testProfileID = "3b241101-e2bb-4255-8caf-4136c566a962"

func authedCtx(profileID string) context.Context {
	return context.WithValue(context.Background(), domain.KeyUserID, profileID)
}

func yoe(years int) *domain.Background {
	return &domain.Background{TotalYearsOfExperience: &years}
}

func testOffer(id, profileID, companyID string, totalBase float64, background *domain.Background) domain.Offer {
	return domain.Offer{
		ID:         id,
		ProfileID:  profileID,
		CompanyID:  companyID,
		LocationID: "loc-sf",
		Kind:       domain.EmploymentKindFullTime,
		ReceivedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Background: background,
		FullTime: &domain.FullTimeCompensation{
			Title:             "Software Engineer",
			TotalCompensation: domain.CompensationValue{Amount: totalBase, Currency: "USD", BaseValue: totalBase},
		},
	}
}

func testInternOffer(id, profileID, companyID string, monthlyBase float64, background *domain.Background) domain.Offer {
	return domain.Offer{
		ID:         id,
		ProfileID:  profileID,
		CompanyID:  companyID,
		LocationID: "loc-sf",
		Kind:       domain.EmploymentKindIntern,
		ReceivedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Background: background,
		Intern: &domain.InternCompensation{
			Title:         "SWE Intern",
			MonthlySalary: domain.CompensationValue{Amount: monthlyBase, Currency: "USD", BaseValue: monthlyBase},
		},
	}
}

func cohortForCompany(companyID *string) interface{} {
	return mock.MatchedBy(func(f domain.OfferFilter) bool {
		if companyID == nil {
			return f.CompanyID == nil
		}
		return f.CompanyID != nil && *f.CompanyID == *companyID
	})
}

func TestGenerateAnalysisOwnership(t *testing.T) {
	uc := usecase.NewAnalysisUsecase(new(MockOfferRepo), new(MockAnalysisRepo), validator.New())

	t.Run("Should fail when context user does not match profile", func(t *testing.T) {
		_, err := uc.GenerateAnalysis(authedCtx("someone-else"), testProfileID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "your own offers")
	})

	t.Run("Should fail safely when context user is missing", func(t *testing.T) {
		_, err := uc.GenerateAnalysis(context.Background(), testProfileID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not authenticated")
	})
}

func TestGenerateAnalysisNoOffers(t *testing.T) {
	offerRepo := new(MockOfferRepo)
	analysisRepo := new(MockAnalysisRepo)
	uc := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validator.New())

	ctx := authedCtx(testProfileID)
	analysisRepo.On("DeleteByProfile", mock.Anything, testProfileID).Return(nil)
	offerRepo.On("FindByProfile", mock.Anything, testProfileID).Return([]domain.Offer{}, nil)

	_, err := uc.GenerateAnalysis(ctx, testProfileID)

	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Contains(t, err.Error(), "No offers found")
	analysisRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerateAnalysisMissingExperience(t *testing.T) {
	offerRepo := new(MockOfferRepo)
	analysisRepo := new(MockAnalysisRepo)
	uc := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validator.New())

	ctx := authedCtx(testProfileID)
	offers := []domain.Offer{testOffer("offer-a", testProfileID, "company-x", 150000, nil)}

	analysisRepo.On("DeleteByProfile", mock.Anything, testProfileID).Return(nil)
	offerRepo.On("FindByProfile", mock.Anything, testProfileID).Return(offers, nil)

	_, err := uc.GenerateAnalysis(ctx, testProfileID)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Years of experience not found")
	// The reset still happened before the failure point, nothing was written after it
	analysisRepo.AssertCalled(t, "DeleteByProfile", mock.Anything, testProfileID)
	analysisRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGenerateAnalysisEndToEnd(t *testing.T) {
	offerRepo := new(MockOfferRepo)
	analysisRepo := new(MockAnalysisRepo)
	uc := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validator.New())

	ctx := authedCtx(testProfileID)

	offerA := testOffer("offer-a", testProfileID, "company-x", 150000, yoe(4))
	offerB := testInternOffer("offer-b", testProfileID, "company-y", 5000, yoe(4))

	// Global cohort for A: distinct buckets [200k, 180k, 150k, 100k], A in the 150k bucket
	globalCohort := []domain.Offer{
		testOffer("peer-1", "other-1", "company-z", 200000, yoe(4)),
		testOffer("peer-2", "other-2", "company-z", 180000, yoe(5)),
		offerA,
		testOffer("peer-3", "other-3", "company-w", 150000, yoe(3)),
		testOffer("peer-4", "other-4", "company-w", 100000, yoe(4)),
	}

	companyX := "company-x"
	companyY := "company-y"

	analysisRepo.On("DeleteByProfile", mock.Anything, testProfileID).Return(nil)
	offerRepo.On("FindByProfile", mock.Anything, testProfileID).Return([]domain.Offer{offerA, offerB}, nil)
	offerRepo.On("FindCohort", mock.Anything, cohortForCompany(nil)).Return(globalCohort, nil)
	offerRepo.On("FindCohort", mock.Anything, cohortForCompany(&companyX)).Return([]domain.Offer{offerA}, nil)
	offerRepo.On("FindCohort", mock.Anything, cohortForCompany(&companyY)).Return([]domain.Offer{offerB}, nil)
	analysisRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Analysis")).Return(nil)

	analysis, err := uc.GenerateAnalysis(ctx, testProfileID)

	assert.NoError(t, err)
	assert.NotNil(t, analysis)
	assert.Equal(t, testProfileID, analysis.ProfileID)
	assert.Equal(t, "offer-a", analysis.TopOfferID)

	// Overall pass: bucket index 2 of 4 distinct values
	overall := analysis.Overall
	assert.NotNil(t, overall)
	assert.Equal(t, "offer-a", overall.OfferID)
	assert.InDelta(t, 100-100.0*2/3, overall.Percentile, 1e-9)
	// Own offer excluded from the peer set
	assert.Equal(t, 4, overall.CohortSize)
	// Sample drawn from [200k, 180k, 150k, 100k] peers at the top decile
	assert.Equal(t, []string{"peer-2", "peer-3"}, overall.SimilarOfferIDs)
	assert.NotContains(t, overall.SimilarOfferIDs, "offer-a")
	assert.NotContains(t, overall.SimilarOfferIDs, "offer-b")

	// Per-employer passes follow the insertion order of first appearance
	assert.Len(t, analysis.ByCompany, 2)
	resX := analysis.ByCompany[0]
	assert.Equal(t, &companyX, resX.CompanyID)
	assert.Equal(t, "offer-a", resX.OfferID)
	// Only the subject's own offer at X: degenerate cohort
	assert.Equal(t, 100.0, resX.Percentile)
	assert.Equal(t, 0, resX.CohortSize)
	assert.Empty(t, resX.SimilarOfferIDs)

	resY := analysis.ByCompany[1]
	assert.Equal(t, &companyY, resY.CompanyID)
	assert.Equal(t, "offer-b", resY.OfferID)
	assert.Equal(t, 100.0, resY.Percentile)

	analysisRepo.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*domain.Analysis"))
}

func TestGenerateAnalysisCohortFilter(t *testing.T) {
	offerRepo := new(MockOfferRepo)
	analysisRepo := new(MockAnalysisRepo)
	uc := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validator.New())

	ctx := authedCtx(testProfileID)
	offerA := testOffer("offer-a", testProfileID, "company-x", 150000, yoe(4))

	var captured domain.OfferFilter
	analysisRepo.On("DeleteByProfile", mock.Anything, testProfileID).Return(nil)
	offerRepo.On("FindByProfile", mock.Anything, testProfileID).Return([]domain.Offer{offerA}, nil)
	offerRepo.On("FindCohort", mock.Anything, cohortForCompany(nil)).Run(func(args mock.Arguments) {
		captured = args.Get(1).(domain.OfferFilter)
	}).Return([]domain.Offer{offerA}, nil)
	offerRepo.On("FindCohort", mock.Anything, cohortForCompany(&offerA.CompanyID)).Return([]domain.Offer{offerA}, nil)
	analysisRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.GenerateAnalysis(ctx, testProfileID)
	assert.NoError(t, err)

	// Same location, 12 months back from the reference date, same full-time
	// title, YOE within one year either side
	assert.Equal(t, "loc-sf", *captured.LocationID)
	assert.Equal(t, offerA.ReceivedAt.AddDate(-1, 0, 0), *captured.ReceivedFrom)
	assert.Equal(t, "Software Engineer", *captured.FullTimeTitle)
	assert.Nil(t, captured.InternTitle)
	assert.Equal(t, 3, *captured.YearsOfExpMin)
	assert.Equal(t, 5, *captured.YearsOfExpMax)
}

func TestGenerateAnalysisYoeFloor(t *testing.T) {
	offerRepo := new(MockOfferRepo)
	analysisRepo := new(MockAnalysisRepo)
	uc := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validator.New())

	ctx := authedCtx(testProfileID)
	offerA := testOffer("offer-a", testProfileID, "company-x", 150000, yoe(0))

	var captured domain.OfferFilter
	analysisRepo.On("DeleteByProfile", mock.Anything, testProfileID).Return(nil)
	offerRepo.On("FindByProfile", mock.Anything, testProfileID).Return([]domain.Offer{offerA}, nil)
	offerRepo.On("FindCohort", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(domain.OfferFilter)
	}).Return([]domain.Offer{offerA}, nil)
	analysisRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := uc.GenerateAnalysis(ctx, testProfileID)
	assert.NoError(t, err)

	// The lower experience bound clamps at zero
	assert.Equal(t, 0, *captured.YearsOfExpMin)
	assert.Equal(t, 1, *captured.YearsOfExpMax)
}

func TestGetAnalysis(t *testing.T) {
	t.Run("Should hydrate sample offers from the store", func(t *testing.T) {
		offerRepo := new(MockOfferRepo)
		analysisRepo := new(MockAnalysisRepo)
		uc := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validator.New())

		ctx := authedCtx(testProfileID)
		stored := &domain.Analysis{
			ID:         "analysis-1",
			ProfileID:  testProfileID,
			TopOfferID: "offer-a",
			Overall: &domain.AnalysisResult{
				ID:              "result-1",
				OfferID:         "offer-a",
				CohortSize:      4,
				Percentile:      33.33,
				SimilarOfferIDs: []string{"peer-2", "peer-3"},
			},
		}
		peers := []domain.Offer{
			testOffer("peer-2", "other-2", "company-z", 180000, yoe(5)),
			testOffer("peer-3", "other-3", "company-w", 150000, yoe(3)),
		}

		analysisRepo.On("GetByProfile", mock.Anything, testProfileID).Return(stored, nil)
		offerRepo.On("FindByIDs", mock.Anything, []string{"peer-2", "peer-3"}).Return(peers, nil)

		analysis, err := uc.GetAnalysis(ctx, testProfileID)

		assert.NoError(t, err)
		assert.Len(t, analysis.Overall.SimilarOffers, 2)
		assert.Equal(t, "peer-2", analysis.Overall.SimilarOffers[0].ID)
	})

	t.Run("Should return not found when no analysis exists", func(t *testing.T) {
		offerRepo := new(MockOfferRepo)
		analysisRepo := new(MockAnalysisRepo)
		uc := usecase.NewAnalysisUsecase(offerRepo, analysisRepo, validator.New())

		analysisRepo.On("GetByProfile", mock.Anything, testProfileID).Return(nil, nil)

		_, err := uc.GetAnalysis(authedCtx(testProfileID), testProfileID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Analysis not found")
	})
}
