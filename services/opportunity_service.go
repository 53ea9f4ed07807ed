package services

import (
	"go.uber.org/zap"

	"bizcore/auth"
	"bizcore/authz"
	"bizcore/models"
	"bizcore/repositories"
)

// The OpportunityService interface defines the scoped read and write paths of
// the opportunity aggregate. List endpoints restrict through the row-level
// filter; single-entity and nested-note paths decide through the guard.
type OpportunityService interface {
	List(p authz.Principal, q *OpportunityQuery) ([]models.Opportunity, int64, error)
	GetByID(p authz.Principal, id uint) (*models.Opportunity, error)
	UpdateStage(p authz.Principal, id uint, stage string) (*models.Opportunity, error)
	GetNote(p authz.Principal, noteID uint) (*models.OpportunityNote, error)
}

type OpportunityQuery struct {
	Keyword  string `json:"keyword"`
	Stage    string `json:"stage"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type opportunityService struct {
	repo   repositories.OpportunityRepository
	logger *zap.Logger
}

var _ OpportunityService = (*opportunityService)(nil)

// NewOpportunityService creates a new OpportunityService instance.
func NewOpportunityService(repo repositories.OpportunityRepository, logger *zap.Logger) OpportunityService {
	return &opportunityService{repo: repo, logger: logger}
}

// List returns the opportunities visible to the principal. The resolved
// scope becomes a row filter conjoined with the caller's search filters; a
// principal with no read permission gets an empty page, not an error.
func (s *opportunityService) List(p authz.Principal, q *OpportunityQuery) ([]models.Opportunity, int64, error) {
	filter := authz.Filter(p, authz.ResourceOpportunity, authz.ActionRead, authz.OpportunityMeta)
	return s.repo.List(filter, q.Keyword, q.Stage, q.Page, q.PageSize)
}

// GetByID fetches one opportunity and checks it against the guard. Denials
// are reported as not-found so out-of-scope ids are indistinguishable from
// nonexistent ones.
func (s *opportunityService) GetByID(p authz.Principal, id uint) (*models.Opportunity, error) {
	opp, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, resourceContext(opp), authz.ResourceOpportunity, authz.ActionRead) {
		return nil, auth.ErrResourceNotFound
	}
	return opp, nil
}

// UpdateStage moves an opportunity to a new stage. The caller must pass the
// read check first (masked as not-found on failure); a caller who can see
// the entity but lacks update scope gets an explicit access-denied.
func (s *opportunityService) UpdateStage(p authz.Principal, id uint, stage string) (*models.Opportunity, error) {
	opp, err := s.GetByID(p, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccess(p, resourceContext(opp), authz.ResourceOpportunity, authz.ActionUpdate) {
		return nil, auth.ErrAccessDenied
	}
	if err := s.repo.UpdateStage(opp.ID, stage); err != nil {
		return nil, err
	}
	s.logger.Info("opportunity stage updated",
		zap.Uint("opportunity_id", opp.ID),
		zap.String("stage", stage),
		zap.Uint("user_id", p.UserID))
	opp.Stage = stage
	return opp, nil
}

// GetNote fetches a note through its parent opportunity. Private notes are
// restricted to their author and unrestricted readers even when the caller
// would qualify through assignment; denial reads as not-found.
func (s *opportunityService) GetNote(p authz.Principal, noteID uint) (*models.OpportunityNote, error) {
	note, err := s.repo.FindNoteByID(noteID)
	if err != nil {
		return nil, err
	}
	opp, err := s.repo.FindByID(note.OpportunityID)
	if err != nil {
		return nil, err
	}

	rc := resourceContext(opp)
	rc.CreatorID = note.AuthorID
	if note.Private {
		rc.PrivateTo = note.AuthorID
	}
	if !authz.CanAccess(p, rc, authz.ResourceOpportunityNote, authz.ActionRead) {
		return nil, auth.ErrResourceNotFound
	}
	return note, nil
}

// resourceContext extracts the authorization anchors of a loaded opportunity.
func resourceContext(opp *models.Opportunity) authz.ResourceContext {
	rc := authz.ResourceContext{CreatorID: opp.CreatedByID}
	if opp.TeamID != nil {
		rc.TeamID = *opp.TeamID
	}
	for _, e := range opp.Assignees {
		rc.AssigneeIDs = append(rc.AssigneeIDs, e.ID)
	}
	return rc
}
