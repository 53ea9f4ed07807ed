package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bizcore/auth"
	"bizcore/authz"
	"bizcore/models"
)

type fakeOpportunityRepo struct {
	opps  map[uint]*models.Opportunity
	notes map[uint]*models.OpportunityNote

	stageUpdates map[uint]string
}

func newFakeOpportunityRepo() *fakeOpportunityRepo {
	return &fakeOpportunityRepo{
		opps:         make(map[uint]*models.Opportunity),
		notes:        make(map[uint]*models.OpportunityNote),
		stageUpdates: make(map[uint]string),
	}
}

func (r *fakeOpportunityRepo) Create(opp *models.Opportunity) error {
	r.opps[opp.ID] = opp
	return nil
}

func (r *fakeOpportunityRepo) FindByID(id uint) (*models.Opportunity, error) {
	if opp, ok := r.opps[id]; ok {
		cp := *opp
		return &cp, nil
	}
	return nil, auth.ErrResourceNotFound
}

func (r *fakeOpportunityRepo) FindNoteByID(id uint) (*models.OpportunityNote, error) {
	if note, ok := r.notes[id]; ok {
		cp := *note
		return &cp, nil
	}
	return nil, auth.ErrResourceNotFound
}

func (r *fakeOpportunityRepo) UpdateStage(id uint, stage string) error {
	r.stageUpdates[id] = stage
	return nil
}

func (r *fakeOpportunityRepo) List(scope func(*gorm.DB) *gorm.DB, keyword, stage string, page, pageSize int) ([]models.Opportunity, int64, error) {
	panic("not used")
}

func testPrincipal(userID, employeeID, teamID uint, perms ...string) authz.Principal {
	p := authz.Principal{
		UserID:      userID,
		EmployeeID:  employeeID,
		TeamID:      teamID,
		Enabled:     true,
		Permissions: make(map[string]struct{}),
	}
	for _, name := range perms {
		p.Permissions[name] = struct{}{}
	}
	return p
}

func seedOpportunity(repo *fakeOpportunityRepo, id, createdBy uint, teamID uint, assigneeIDs ...uint) *models.Opportunity {
	opp := &models.Opportunity{
		Title:       "Acme renewal",
		Stage:       "open",
		CreatedByID: createdBy,
	}
	opp.ID = id
	if teamID != 0 {
		opp.TeamID = &teamID
	}
	for _, eid := range assigneeIDs {
		emp := models.Employee{}
		emp.ID = eid
		opp.Assignees = append(opp.Assignees, emp)
	}
	repo.opps[id] = opp
	return opp
}

func TestOpportunityGetByID(t *testing.T) {
	repo := newFakeOpportunityRepo()
	svc := NewOpportunityService(repo, zap.NewNop())
	seedOpportunity(repo, 10, 7, 2, 3)

	t.Run("creator with own scope", func(t *testing.T) {
		p := testPrincipal(7, 0, 0, "opportunity:read:own")
		opp, err := svc.GetByID(p, 10)
		require.NoError(t, err)
		assert.Equal(t, uint(10), opp.ID)
	})

	t.Run("assignee with assigned scope", func(t *testing.T) {
		p := testPrincipal(8, 3, 0, "opportunity:read:assigned")
		_, err := svc.GetByID(p, 10)
		assert.NoError(t, err)
	})

	t.Run("out of scope reads as not found", func(t *testing.T) {
		p := testPrincipal(9, 4, 5, "opportunity:read:own")
		_, err := svc.GetByID(p, 10)
		assert.ErrorIs(t, err, auth.ErrResourceNotFound)
	})

	t.Run("missing id", func(t *testing.T) {
		p := testPrincipal(7, 0, 0, "opportunity:read:all")
		_, err := svc.GetByID(p, 99)
		assert.ErrorIs(t, err, auth.ErrResourceNotFound)
	})
}

func TestOpportunityUpdateStage(t *testing.T) {
	repo := newFakeOpportunityRepo()
	svc := NewOpportunityService(repo, zap.NewNop())
	seedOpportunity(repo, 10, 7, 2, 3)

	t.Run("read and update scope", func(t *testing.T) {
		p := testPrincipal(7, 0, 0, "opportunity:read:own", "opportunity:update:own")
		opp, err := svc.UpdateStage(p, 10, "won")
		require.NoError(t, err)
		assert.Equal(t, "won", opp.Stage)
		assert.Equal(t, "won", repo.stageUpdates[10])
	})

	t.Run("visible but not updatable is denied, not masked", func(t *testing.T) {
		p := testPrincipal(8, 3, 0, "opportunity:read:assigned")
		_, err := svc.UpdateStage(p, 10, "lost")
		assert.ErrorIs(t, err, auth.ErrAccessDenied)
	})

	t.Run("invisible reads as not found", func(t *testing.T) {
		p := testPrincipal(9, 0, 0, "opportunity:update:all")
		_, err := svc.UpdateStage(p, 10, "lost")
		assert.ErrorIs(t, err, auth.ErrResourceNotFound)
	})
}

func TestOpportunityGetNote(t *testing.T) {
	repo := newFakeOpportunityRepo()
	svc := NewOpportunityService(repo, zap.NewNop())
	seedOpportunity(repo, 10, 7, 2, 3, 11)

	public := &models.OpportunityNote{OpportunityID: 10, AuthorID: 7, Body: "call notes"}
	public.ID = 100
	repo.notes[100] = public

	private := &models.OpportunityNote{OpportunityID: 10, AuthorID: 7, Body: "internal", Private: true}
	private.ID = 101
	repo.notes[101] = private

	t.Run("assignee reads public note", func(t *testing.T) {
		p := testPrincipal(12, 11, 0, "opportunity-note:read:assigned")
		note, err := svc.GetNote(p, 100)
		require.NoError(t, err)
		assert.Equal(t, "call notes", note.Body)
	})

	t.Run("assignee denied on private note", func(t *testing.T) {
		p := testPrincipal(12, 11, 0, "opportunity-note:read:assigned")
		_, err := svc.GetNote(p, 101)
		assert.ErrorIs(t, err, auth.ErrResourceNotFound)
	})

	t.Run("author reads own private note", func(t *testing.T) {
		p := testPrincipal(7, 0, 0, "opportunity-note:read:own")
		note, err := svc.GetNote(p, 101)
		require.NoError(t, err)
		assert.True(t, note.Private)
	})

	t.Run("unrestricted reader passes the private overlay", func(t *testing.T) {
		p := testPrincipal(1, 0, 0, "opportunity-note:read:all")
		_, err := svc.GetNote(p, 101)
		assert.NoError(t, err)
	})
}
