// Package catalog provides database operations for authors, books, genres and
// book instances.
package catalog

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/locallibrary/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Count returns the number of rows of the given model.
func (r *Repository) Count(ctx context.Context, model any) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(model).Count(&n).Error
	return n, err
}

// CountBooksWithTitleContaining counts books whose title contains substr,
// ignoring case. LIKE wildcards in substr match literally.
func (r *Repository) CountBooksWithTitleContaining(ctx context.Context, substr string) (int64, error) {
	var n int64
	pattern := "%" + escapeLike(strings.ToLower(substr)) + "%"
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern).
		Count(&n).Error
	return n, err
}

// CountInstancesByStatus counts copies in the given status.
func (r *Repository) CountInstancesByStatus(ctx context.Context, status entities.LoanStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.BookInstance{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}

// ListBooks returns a page of books ordered by title, with their authors.
func (r *Repository) ListBooks(ctx context.Context, limit, offset int) ([]entities.Book, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []entities.Book
	err := r.db.WithContext(ctx).Preload("Author").
		Order("title ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&books).Error
	return books, total, err
}

// ListAuthors returns a page of authors ordered by last name, then first name.
func (r *Repository) ListAuthors(ctx context.Context, limit, offset int) ([]entities.Author, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Author{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []entities.Author
	err := r.db.WithContext(ctx).
		Order("last_name ASC").Order("first_name ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&authors).Error
	return authors, total, err
}

// ListGenres returns a page of genres ordered by name.
func (r *Repository) ListGenres(ctx context.Context, limit, offset int) ([]entities.Genre, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Genre{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []entities.Genre
	err := r.db.WithContext(ctx).
		Order("name ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&genres).Error
	return genres, total, err
}

type authorCountRow struct {
	ID          uint
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	DateOfDeath *time.Time
	BookCount   int64
}

// ListAuthorsWithBookCounts returns a page of authors in default order, each
// paired with the number of books referencing them. Authors without books
// are included with a zero count.
func (r *Repository) ListAuthorsWithBookCounts(ctx context.Context, limit, offset int) ([]entities.AuthorBookCount, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Author{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []authorCountRow
	err := r.db.WithContext(ctx).Model(&entities.Author{}).
		Select("authors.id, authors.first_name, authors.last_name, authors.date_of_birth, authors.date_of_death, COUNT(books.id) AS book_count").
		Joins("LEFT JOIN books ON books.author_id = authors.id").
		Group("authors.id").
		Order("authors.last_name ASC, authors.first_name ASC, authors.id ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]entities.AuthorBookCount, 0, len(rows))
	for _, row := range rows {
		result = append(result, entities.AuthorBookCount{
			Author: entities.Author{
				ID:          row.ID,
				FirstName:   row.FirstName,
				LastName:    row.LastName,
				DateOfBirth: row.DateOfBirth,
				DateOfDeath: row.DateOfDeath,
			},
			BookCount: row.BookCount,
		})
	}
	return result, total, nil
}

// GetBook loads a book with its author, genres and copies.
func (r *Repository) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Genres", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Preload("Instances", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_back ASC").Order("id ASC")
		}).
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAuthor loads an author with their books.
func (r *Repository) GetAuthor(ctx context.Context, id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB {
			return db.Order("title ASC")
		}).
		First(&author, id).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// Get loads any catalog model by primary key with its direct associations.
func (r *Repository) Get(ctx context.Context, dest any, id any) error {
	return r.db.WithContext(ctx).Preload(clause.Associations).First(dest, "id = ?", id).Error
}

// Exists reports whether a row of the given model has the primary key id.
func (r *Repository) Exists(ctx context.Context, model any, id any) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// FindGenres loads the genres with the given ids. Unknown ids are skipped.
func (r *Repository) FindGenres(ctx context.Context, ids []uint) ([]entities.Genre, error) {
	var genres []entities.Genre
	if len(ids) == 0 {
		return genres, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&genres).Error
	return genres, err
}

// GenreNameTaken reports whether a genre other than exceptID already uses
// name, ignoring case.
func (r *Repository) GenreNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Genre{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), exceptID).
		Count(&n).Error
	return n > 0, err
}

// Create inserts a model. Associations are not upserted, apart from a book's
// genre links.
func (r *Repository) Create(ctx context.Context, value any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(value).Error; err != nil {
			return err
		}
		return replaceGenres(tx, value)
	})
}

// Update writes every column of a loaded model. Versioned models are only
// written when the stored version still matches; otherwise the row is left
// untouched and entities.ErrStaleVersion is returned.
func (r *Repository) Update(ctx context.Context, value any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if v, ok := value.(entities.Versioned); ok {
			expected := v.CurrentVersion()
			v.SetVersion(expected + 1)
			result := tx.Model(value).
				Where("version = ?", expected).
				Select("*").Omit(clause.Associations).
				Updates(value)
			if result.Error == nil && result.RowsAffected == 0 {
				result.Error = entities.ErrStaleVersion
			}
			if result.Error != nil {
				v.SetVersion(expected)
			}
			return result.Error
		}

		if err := tx.Omit(clause.Associations).Save(value).Error; err != nil {
			return err
		}
		return replaceGenres(tx, value)
	})
}

// Delete removes a loaded model. Model hooks apply the delete policies.
func (r *Repository) Delete(ctx context.Context, value any) error {
	return r.db.WithContext(ctx).Delete(value).Error
}

func replaceGenres(tx *gorm.DB, value any) error {
	book, ok := value.(*entities.Book)
	if !ok {
		return nil
	}
	if len(book.Genres) == 0 {
		return tx.Model(book).Association("Genres").Clear()
	}
	genres := append([]entities.Genre(nil), book.Genres...)
	return tx.Model(book).Association("Genres").Replace(genres)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
