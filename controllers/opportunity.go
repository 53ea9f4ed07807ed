package controllers

import (
	"net/http"
	"strconv"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"bizcore/auth"
	"bizcore/authz"
	"bizcore/models"
	"bizcore/services"
)

// OpportunityController exposes the scoped list/get/update surface of the
// opportunity aggregate. All routes require authentication; visibility is
// decided by the service layer's scope filter and guard.
type OpportunityController struct {
	opportunities services.OpportunityService
	authService   services.AuthService
	issuer        *auth.TokenIssuer
}

// NewOpportunityController creates an OpportunityController instance.
func NewOpportunityController(opportunities services.OpportunityService, authService services.AuthService, issuer *auth.TokenIssuer) *OpportunityController {
	return &OpportunityController{opportunities: opportunities, authService: authService, issuer: issuer}
}

type OpportunityResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Stage     string    `json:"stage"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaginatedOpportunitiesResponse struct {
	Opportunities []OpportunityResponse `json:"opportunities"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
}

type UpdateStageInput struct {
	Stage string `json:"stage" description:"New pipeline stage"`
}

func mapOpportunityToResponse(opp *models.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:        opp.ID,
		Title:     opp.Title,
		Stage:     opp.Stage,
		Amount:    opp.Amount,
		CreatedAt: opp.CreatedAt,
		UpdatedAt: opp.UpdatedAt,
	}
}

// RegisterRoutes sets up opportunity routes on a go-restful WebService.
func (ctl *OpportunityController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/opportunities").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").Filter(auth.AuthFilter(ctl.issuer)).To(ctl.listHandler).
		Doc("List opportunities visible to the caller").
		Param(ws.QueryParameter("keyword", "Filter by title keyword").DataType("string")).
		Param(ws.QueryParameter("stage", "Filter by stage").DataType("string")).
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("page_size", "Items per page (default 10)").DataType("integer").DefaultValue("10")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"opportunities"}).
		Writes(PaginatedOpportunitiesResponse{}).
		Returns(http.StatusOK, "Opportunities listed", PaginatedOpportunitiesResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", MessageResponse{}))

	ws.Route(ws.GET("/{opportunity-id}").Filter(auth.AuthFilter(ctl.issuer)).To(ctl.getHandler).
		Doc("Get one opportunity by id").
		Param(ws.PathParameter("opportunity-id", "Identifier of the opportunity").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"opportunities"}).
		Writes(OpportunityResponse{}).
		Returns(http.StatusOK, "Opportunity found", OpportunityResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", MessageResponse{}).
		Returns(http.StatusNotFound, "Opportunity not found", MessageResponse{}))

	ws.Route(ws.PUT("/{opportunity-id}/stage").Filter(auth.AuthFilter(ctl.issuer)).To(ctl.updateStageHandler).
		Doc("Move an opportunity to a new stage").
		Param(ws.PathParameter("opportunity-id", "Identifier of the opportunity").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"opportunities"}).
		Reads(UpdateStageInput{}).
		Returns(http.StatusOK, "Stage updated", OpportunityResponse{}).
		Returns(http.StatusForbidden, "Forbidden", MessageResponse{}).
		Returns(http.StatusNotFound, "Opportunity not found", MessageResponse{}))

	ws.Route(ws.GET("/notes/{note-id}").Filter(auth.AuthFilter(ctl.issuer)).To(ctl.getNoteHandler).
		Doc("Get one opportunity note by id").
		Param(ws.PathParameter("note-id", "Identifier of the note").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"opportunities"}).
		Returns(http.StatusOK, "Note found", models.OpportunityNote{}).
		Returns(http.StatusNotFound, "Note not found", MessageResponse{}))
}

// principalFromRequest resolves the caller's principal from the user id the
// auth filter stored on the request.
func (ctl *OpportunityController) principalFromRequest(request *restful.Request, response *restful.Response) (authz.Principal, bool) {
	userID, ok := auth.UserIDFromRequest(request)
	if !ok {
		_ = response.WriteHeaderAndJson(http.StatusUnauthorized, MessageResponse{Message: "Unauthorized"}, restful.MIME_JSON)
		return authz.Principal{}, false
	}
	principal, err := ctl.authService.PrincipalByID(userID)
	if err != nil {
		writeAuthError(response, err)
		return authz.Principal{}, false
	}
	return principal, true
}

func (ctl *OpportunityController) listHandler(request *restful.Request, response *restful.Response) {
	principal, ok := ctl.principalFromRequest(request, response)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(request.QueryParameter("page"))
	pageSize, _ := strconv.Atoi(request.QueryParameter("page_size"))
	query := &services.OpportunityQuery{
		Keyword:  request.QueryParameter("keyword"),
		Stage:    request.QueryParameter("stage"),
		Page:     page,
		PageSize: pageSize,
	}

	opps, total, err := ctl.opportunities.List(principal, query)
	if err != nil {
		writeAuthError(response, err)
		return
	}

	resp := PaginatedOpportunitiesResponse{
		Opportunities: make([]OpportunityResponse, 0, len(opps)),
		Total:         total,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	for i := range opps {
		resp.Opportunities = append(resp.Opportunities, mapOpportunityToResponse(&opps[i]))
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, resp, restful.MIME_JSON)
}

func (ctl *OpportunityController) getHandler(request *restful.Request, response *restful.Response) {
	principal, ok := ctl.principalFromRequest(request, response)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(request.PathParameter("opportunity-id"), 10, 32)
	if err != nil {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: "Invalid opportunity id"}, restful.MIME_JSON)
		return
	}

	opp, err := ctl.opportunities.GetByID(principal, uint(id))
	if err != nil {
		writeAuthError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapOpportunityToResponse(opp), restful.MIME_JSON)
}

func (ctl *OpportunityController) updateStageHandler(request *restful.Request, response *restful.Response) {
	principal, ok := ctl.principalFromRequest(request, response)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(request.PathParameter("opportunity-id"), 10, 32)
	if err != nil {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: "Invalid opportunity id"}, restful.MIME_JSON)
		return
	}
	input := new(UpdateStageInput)
	if err := request.ReadEntity(input); err != nil || input.Stage == "" {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: "stage is required"}, restful.MIME_JSON)
		return
	}

	opp, err := ctl.opportunities.UpdateStage(principal, uint(id), input.Stage)
	if err != nil {
		writeAuthError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapOpportunityToResponse(opp), restful.MIME_JSON)
}

func (ctl *OpportunityController) getNoteHandler(request *restful.Request, response *restful.Response) {
	principal, ok := ctl.principalFromRequest(request, response)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(request.PathParameter("note-id"), 10, 32)
	if err != nil {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: "Invalid note id"}, restful.MIME_JSON)
		return
	}

	note, err := ctl.opportunities.GetNote(principal, uint(id))
	if err != nil {
		writeAuthError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, note, restful.MIME_JSON)
}
