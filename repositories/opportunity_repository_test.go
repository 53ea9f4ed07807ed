package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizcore/auth"
	"bizcore/authz"
)

func opportunityColumns() []string {
	return []string{"id", "created_at", "updated_at", "deleted_at", "title", "stage", "amount", "created_by_id", "team_id"}
}

// A user holding only "opportunity:read:own" lists exactly their own records:
// the scope filter lands in both the count and the page query.
func TestListOwnScope(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepository(db)

	p := authz.Principal{
		UserID:      7,
		Enabled:     true,
		Permissions: map[string]struct{}{"opportunity:read:own": {}},
	}
	filter := authz.Filter(p, authz.ResourceOpportunity, authz.ActionRead, authz.OpportunityMeta)

	now := time.Now()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `opportunities` WHERE opportunities\\.created_by_id = ").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM `opportunities` WHERE opportunities\\.created_by_id = ").
		WillReturnRows(sqlmock.NewRows(opportunityColumns()).
			AddRow(1, now, now, nil, "Acme renewal", "open", 5000, 7, nil).
			AddRow(2, now, now, nil, "Globex upsell", "open", 12000, 7, nil))
	mock.ExpectQuery("SELECT (.+) FROM `opportunity_assignees` WHERE ").
		WillReturnRows(sqlmock.NewRows([]string{"opportunity_id", "employee_id"}))

	opps, total, err := repo.List(filter, "", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, opps, 2)
	assert.Equal(t, uint(7), opps[0].CreatedByID)
	assert.Equal(t, uint(7), opps[1].CreatedByID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// With no matching read permission the scope filter is always false and both
// queries run against it; the result is an empty page, not an error.
func TestListNoPermission(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepository(db)

	p := authz.Principal{UserID: 7, Enabled: true, Permissions: map[string]struct{}{}}
	filter := authz.Filter(p, authz.ResourceOpportunity, authz.ActionRead, authz.OpportunityMeta)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `opportunities` WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectQuery("SELECT (.+) FROM `opportunities` WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows(opportunityColumns()))

	opps, total, err := repo.List(filter, "", "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, opps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM `opportunities` WHERE `opportunities`\\.`id` = ").
		WillReturnRows(sqlmock.NewRows(opportunityColumns()))

	_, err := repo.FindByID(42)
	assert.ErrorIs(t, err, auth.ErrResourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `opportunities` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStage(42, "won"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNoteByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM `opportunity_notes` WHERE `opportunity_notes`\\.`id` = ").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "deleted_at", "opportunity_id", "author_id", "body", "private"}))

	_, err := repo.FindNoteByID(9)
	assert.ErrorIs(t, err, auth.ErrResourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
