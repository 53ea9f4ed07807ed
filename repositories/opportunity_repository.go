package repositories

import (
	"errors"

	"bizcore/auth"
	"bizcore/models"

	"gorm.io/gorm"
)

// OpportunityRepository handles the opportunity aggregate. List accepts the
// caller's row-level scope filter as an opaque gorm scope and conjoins it
// with its own search filters; the repository never inspects the scope.
type OpportunityRepository interface {
	Create(opp *models.Opportunity) error
	FindByID(id uint) (*models.Opportunity, error)
	FindNoteByID(id uint) (*models.OpportunityNote, error)
	UpdateStage(id uint, stage string) error
	List(scope func(*gorm.DB) *gorm.DB, keyword, stage string, page, pageSize int) ([]models.Opportunity, int64, error)
}

type opportunityRepository struct {
	db *gorm.DB
}

var _ OpportunityRepository = (*opportunityRepository)(nil)

// NewOpportunityRepository creates a new OpportunityRepository instance.
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) Create(opp *models.Opportunity) error {
	return r.db.Create(opp).Error
}

func (r *opportunityRepository) FindByID(id uint) (*models.Opportunity, error) {
	var opp models.Opportunity
	result := r.db.Preload("Assignees").First(&opp, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, auth.ErrResourceNotFound
		}
		return nil, result.Error
	}
	return &opp, nil
}

func (r *opportunityRepository) FindNoteByID(id uint) (*models.OpportunityNote, error) {
	var note models.OpportunityNote
	result := r.db.First(&note, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, auth.ErrResourceNotFound
		}
		return nil, result.Error
	}
	return &note, nil
}

func (r *opportunityRepository) UpdateStage(id uint, stage string) error {
	return r.db.Model(&models.Opportunity{}).
		Where("id = ?", id).
		Update("stage", stage).Error
}

func (r *opportunityRepository) List(scope func(*gorm.DB) *gorm.DB, keyword, stage string, page, pageSize int) ([]models.Opportunity, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	// The scope filter and the search filters are plain conjoined WHERE
	// conditions; applied identically to the count and the page query.
	filters := func(db *gorm.DB) *gorm.DB {
		db = scope(db)
		if keyword != "" {
			db = db.Where("opportunities.title LIKE ?", "%"+keyword+"%")
		}
		if stage != "" {
			db = db.Where("opportunities.stage = ?", stage)
		}
		return db
	}

	var total int64
	if err := r.db.Model(&models.Opportunity{}).Scopes(filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var opps []models.Opportunity
	offset := (page - 1) * pageSize
	result := r.db.Model(&models.Opportunity{}).Scopes(filters).
		Preload("Assignees").
		Offset(offset).Limit(pageSize).
		Find(&opps)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return opps, total, nil
}
