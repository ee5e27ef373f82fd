// Package loans provides database operations for copies that are lent out.
package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListOnLoan returns a page of copies on loan, soonest due first. When
// borrowerID is set only that borrower's loans are returned.
func (r *Repository) ListOnLoan(ctx context.Context, borrowerID *uint, limit, offset int) ([]entities.BookInstance, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", entities.LoanStatusOnLoan)
		if borrowerID != nil {
			db = db.Where("borrower_id = ?", *borrowerID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.BookInstance{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var instances []entities.BookInstance
	err := r.db.WithContext(ctx).Scopes(scope).
		Preload("Book").Preload("Borrower").
		Order("due_back ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&instances).Error
	return instances, total, err
}

// GetInstance loads a copy with its book and borrower.
func (r *Repository) GetInstance(ctx context.Context, id uuid.UUID) (*entities.BookInstance, error) {
	var instance entities.BookInstance
	err := r.db.WithContext(ctx).
		Preload("Book").Preload("Borrower").
		First(&instance, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// UpdateDueBack sets a new due date in a single conditional statement. The
// row is only written while its version still equals expectedVersion.
func (r *Repository) UpdateDueBack(ctx context.Context, id uuid.UUID, dueBack time.Time, expectedVersion int) error {
	result := r.db.WithContext(ctx).Model(&entities.BookInstance{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"due_back": dueBack,
			"version":  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrStaleVersion
	}
	return nil
}

// ListOverdue returns every copy on loan whose due date is before asOf.
func (r *Repository) ListOverdue(ctx context.Context, asOf time.Time) ([]entities.BookInstance, error) {
	var instances []entities.BookInstance
	err := r.db.WithContext(ctx).
		Preload("Book").Preload("Borrower").
		Where("status = ? AND due_back < ?", entities.LoanStatusOnLoan, asOf).
		Order("due_back ASC").Order("id ASC").
		Find(&instances).Error
	return instances, err
}
