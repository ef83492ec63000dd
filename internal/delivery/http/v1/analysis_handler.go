package v1

import (
	"fmt"
	"net/http"
	"time"

	"go-compensation-backend/internal/delivery/http/response"
	"go-compensation-backend/internal/domain"
	"go-compensation-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analysisUC domain.AnalysisUsecase
}

// NewAnalysisHandler registers the offer-analysis routes. The generation
// endpoint additionally goes through the analysis rate limiter since each
// call fans out several cohort queries.
func NewAnalysisHandler(protected *gin.RouterGroup, analysisUC domain.AnalysisUsecase, analysisLimiter gin.HandlerFunc) {
	handler := &AnalysisHandler{analysisUC: analysisUC}

	profiles := protected.Group("/profiles")
	{
		profiles.POST("/:id/analysis", analysisLimiter, handler.Generate)
		profiles.GET("/:id/analysis", handler.Get)
	}
}

// OfferSummary is the wire shape of a sample offer
type OfferSummary struct {
	ID          string  `json:"id"`
	CompanyName string  `json:"company_name,omitempty"`
	Title       string  `json:"title"`
	Kind        string  `json:"kind"`
	Location    string  `json:"location,omitempty"`
	Value       float64 `json:"value"`
	ReceivedAt  string  `json:"received_at"` // YYYY-MM
}

// AnalysisResultResponse is the wire shape of one ranking pass
type AnalysisResultResponse struct {
	OfferID          string         `json:"offer_id"`
	CompanyID        *string        `json:"company_id,omitempty"`
	CohortSize       int            `json:"cohort_size"`
	Percentile       float64        `json:"percentile"`
	TopSimilarOffers []OfferSummary `json:"top_similar_offers"`
}

// AnalysisResponse is the wire shape of the full analysis aggregate
type AnalysisResponse struct {
	ID         string                   `json:"id"`
	ProfileID  string                   `json:"profile_id"`
	TopOfferID string                   `json:"top_offer_id"`
	Overall    *AnalysisResultResponse  `json:"overall"`
	ByCompany  []AnalysisResultResponse `json:"by_company"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Generate godoc
// @Summary      Generate offer analysis
// @Description  Rank the profile's offers against comparable offers, overall and per employer
// @Tags         analysis
// @Produce      json
// @Param        id  path  string  true  "Profile ID"
// @Success      201  {object}  response.Response{data=AnalysisResponse}
// @Failure      401  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /profiles/{id}/analysis [post]
// @Security     BearerAuth
func (h *AnalysisHandler) Generate(c *gin.Context) {
	profileID := c.Param("id")

	analysis, err := h.analysisUC.GenerateAnalysis(c.Request.Context(), profileID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Analysis generated", toAnalysisResponse(analysis))
}

// Get godoc
// @Summary      Get offer analysis
// @Description  Return the profile's stored offer analysis
// @Tags         analysis
// @Produce      json
// @Param        id  path  string  true  "Profile ID"
// @Success      200  {object}  response.Response{data=AnalysisResponse}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /profiles/{id}/analysis [get]
// @Security     BearerAuth
func (h *AnalysisHandler) Get(c *gin.Context) {
	profileID := c.Param("id")

	analysis, err := h.analysisUC.GetAnalysis(c.Request.Context(), profileID)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Analysis", toAnalysisResponse(analysis))
}

func toAnalysisResponse(a *domain.Analysis) *AnalysisResponse {
	resp := &AnalysisResponse{
		ID:         a.ID,
		ProfileID:  a.ProfileID,
		TopOfferID: a.TopOfferID,
		ByCompany:  make([]AnalysisResultResponse, 0, len(a.ByCompany)),
		CreatedAt:  a.CreatedAt,
	}
	if a.Overall != nil {
		overall := toResultResponse(a.Overall)
		resp.Overall = &overall
	}
	for i := range a.ByCompany {
		resp.ByCompany = append(resp.ByCompany, toResultResponse(&a.ByCompany[i]))
	}
	return resp
}

func toResultResponse(r *domain.AnalysisResult) AnalysisResultResponse {
	out := AnalysisResultResponse{
		OfferID:          r.OfferID,
		CompanyID:        r.CompanyID,
		CohortSize:       r.CohortSize,
		Percentile:       r.Percentile,
		TopSimilarOffers: make([]OfferSummary, 0, len(r.SimilarOffers)),
	}
	for i := range r.SimilarOffers {
		out.TopSimilarOffers = append(out.TopSimilarOffers, toOfferSummary(&r.SimilarOffers[i]))
	}
	return out
}

func toOfferSummary(o *domain.Offer) OfferSummary {
	s := OfferSummary{
		ID:         o.ID,
		Kind:       o.Kind,
		Value:      usecase.OfferValue(o, 0),
		ReceivedAt: o.ReceivedAt.Format("2006-01"),
	}
	switch {
	case o.FullTime != nil:
		s.Title = o.FullTime.Title
	case o.Intern != nil:
		s.Title = o.Intern.Title
	}
	if o.Company != nil {
		s.CompanyName = o.Company.Name
	}
	if o.Location != nil {
		s.Location = fmt.Sprintf("%s, %s, %s", o.Location.City, o.Location.State, o.Location.Country)
	}
	return s
}
