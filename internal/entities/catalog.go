package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoanStatus string

const (
	LoanStatusMaintenance LoanStatus = "maintenance"
	LoanStatusOnLoan      LoanStatus = "on_loan"
	LoanStatusAvailable   LoanStatus = "available"
	LoanStatusReserved    LoanStatus = "reserved"
)

// LoanStatuses lists every status a copy can be in, in display order.
var LoanStatuses = []LoanStatus{
	LoanStatusMaintenance,
	LoanStatusOnLoan,
	LoanStatusAvailable,
	LoanStatusReserved,
}

// loanStatusCodes maps the single-letter codes used by older catalog exports.
var loanStatusCodes = map[string]LoanStatus{
	"m": LoanStatusMaintenance,
	"o": LoanStatusOnLoan,
	"a": LoanStatusAvailable,
	"r": LoanStatusReserved,
}

// ParseLoanStatus accepts a status name or its single-letter code.
func ParseLoanStatus(s string) (LoanStatus, error) {
	if status, ok := loanStatusCodes[s]; ok {
		return status, nil
	}
	for _, status := range LoanStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%q is not a valid loan status", s)
}

// DefaultReleased is stored for books created without a release date.
var DefaultReleased = time.Date(1990, time.October, 11, 0, 0, 0, 0, time.UTC)

var (
	// ErrBookHasCopies is returned when deleting a book that still has instances.
	ErrBookHasCopies = errors.New("book still has copies")
	// ErrStaleVersion is returned when a versioned row changed since it was read.
	ErrStaleVersion = errors.New("row was modified concurrently")
)

// Versioned models carry an optimistic concurrency token.
type Versioned interface {
	CurrentVersion() int
	SetVersion(v int)
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:200;not null" json:"name"`
}

func (g *Genre) BeforeDelete(tx *gorm.DB) error {
	return tx.Exec("DELETE FROM book_genres WHERE genre_id = ?", g.ID).Error
}

type Author struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100;not null;index" json:"last_name"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth"`
	DateOfDeath *time.Time `gorm:"type:date" json:"date_of_death"`
	Books       []Book     `json:"books,omitempty"`
}

// BeforeDelete leaves the author's books in place with an unknown author.
func (a *Author) BeforeDelete(tx *gorm.DB) error {
	return tx.Model(&Book{}).Where("author_id = ?", a.ID).Update("author_id", nil).Error
}

func (a Author) FullName() string {
	return a.LastName + ", " + a.FirstName
}

type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:200;not null;index" json:"title"`
	AuthorID  *uint          `gorm:"index" json:"author_id"`
	Author    *Author        `json:"author,omitempty"`
	Summary   string         `gorm:"size:1000" json:"summary"`
	ISBN      string         `gorm:"column:isbn;size:17" json:"isbn"`
	Genres    []Genre        `gorm:"many2many:book_genres" json:"genre"`
	Released  time.Time      `gorm:"type:date;not null" json:"released"`
	Instances []BookInstance `json:"instances,omitempty"`
}

// BeforeDelete refuses to orphan copies and drops the genre links.
func (b *Book) BeforeDelete(tx *gorm.DB) error {
	var copies int64
	if err := tx.Model(&BookInstance{}).Where("book_id = ?", b.ID).Count(&copies).Error; err != nil {
		return err
	}
	if copies > 0 {
		return fmt.Errorf("%w: %d remaining", ErrBookHasCopies, copies)
	}
	return tx.Exec("DELETE FROM book_genres WHERE book_id = ?", b.ID).Error
}

// BookInstance is a single loanable copy of a Book.
type BookInstance struct {
	ID         uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookID     uint       `gorm:"not null;index" json:"book_id"`
	Book       *Book      `json:"book,omitempty"`
	Imprint    string     `gorm:"size:200;not null" json:"imprint"`
	DueBack    *time.Time `gorm:"type:date;index" json:"due_back"`
	BorrowerID *uint      `gorm:"index" json:"borrower_id"`
	Borrower   *User      `json:"borrower,omitempty"`
	Status     LoanStatus `gorm:"size:20;not null;index" json:"status"`
	Version    int        `gorm:"not null" json:"version"`
}

func (bi *BookInstance) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	if bi.Status == "" {
		bi.Status = LoanStatusMaintenance
	}
	if bi.Version == 0 {
		bi.Version = 1
	}
	return nil
}

func (bi *BookInstance) CurrentVersion() int { return bi.Version }
func (bi *BookInstance) SetVersion(v int)    { bi.Version = v }

// OnLoan reports whether the copy is lent out.
func (bi *BookInstance) OnLoan() bool {
	return bi.Status == LoanStatusOnLoan
}

// IsOverdue reports whether the copy is on loan past its due date.
func (bi *BookInstance) IsOverdue(today time.Time) bool {
	return bi.OnLoan() && bi.DueBack != nil && bi.DueBack.Before(today)
}

// AuthorBookCount pairs an author with the number of books they wrote.
type AuthorBookCount struct {
	Author    Author `json:"author"`
	BookCount int64  `json:"book_count"`
}
