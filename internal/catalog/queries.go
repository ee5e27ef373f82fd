package catalog

import (
	"context"

	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

// Summary is the set of counts shown on the catalog home page.
type Summary struct {
	Books              int64 `json:"num_books"`
	Instances          int64 `json:"num_instances"`
	AvailableInstances int64 `json:"num_instances_available"`
	Authors            int64 `json:"num_authors"`
	Genres             int64 `json:"num_genres"`
	BooksWithThe       int64 `json:"num_books_with_the"`
}

// Summary counts every entity, the available copies and the books with
// "the" in their title.
func (s *Service) Summary(ctx context.Context, actor *permissions.Actor) (*Summary, error) {
	if err := s.authorize(actor, OpSummary); err != nil {
		return nil, err
	}

	var sum Summary
	var err error
	if sum.Books, err = s.countAll(ctx, EntityBook); err != nil {
		return nil, err
	}
	if sum.Instances, err = s.countAll(ctx, EntityBookInstance); err != nil {
		return nil, err
	}
	if sum.Authors, err = s.countAll(ctx, EntityAuthor); err != nil {
		return nil, err
	}
	if sum.Genres, err = s.countAll(ctx, EntityGenre); err != nil {
		return nil, err
	}
	if sum.AvailableInstances, err = s.catalog.CountInstancesByStatus(ctx, entities.LoanStatusAvailable); err != nil {
		return nil, translate(err, "count available copies")
	}
	if sum.BooksWithThe, err = s.catalog.CountBooksWithTitleContaining(ctx, "the"); err != nil {
		return nil, translate(err, "count books")
	}
	return &sum, nil
}

// CountAll returns the number of stored rows of one entity type.
func (s *Service) CountAll(ctx context.Context, actor *permissions.Actor, entity EntityType) (int64, error) {
	if err := s.authorize(actor, OpCount); err != nil {
		return 0, err
	}
	return s.countAll(ctx, entity)
}

func (s *Service) countAll(ctx context.Context, entity EntityType) (int64, error) {
	exec, ok := s.executors[entity]
	if !ok {
		return 0, translate(ErrNotFound, "count "+string(entity))
	}
	n, err := s.catalog.Count(ctx, exec.model())
	return n, translate(err, "count "+string(entity))
}

// CountBooksWithTitleContaining counts books whose title contains substr,
// ignoring case.
func (s *Service) CountBooksWithTitleContaining(ctx context.Context, actor *permissions.Actor, substr string) (int64, error) {
	if err := s.authorize(actor, OpCount); err != nil {
		return 0, err
	}
	n, err := s.catalog.CountBooksWithTitleContaining(ctx, substr)
	return n, translate(err, "count books")
}

// CountInstancesByStatus counts copies in one status. status accepts a
// status name or its single-letter code.
func (s *Service) CountInstancesByStatus(ctx context.Context, actor *permissions.Actor, status string) (int64, error) {
	if err := s.authorize(actor, OpCount); err != nil {
		return 0, err
	}
	parsed, err := entities.ParseLoanStatus(status)
	if err != nil {
		return 0, singleFieldError(string(EntityBookInstance), "status", invalidChoice(status))
	}
	n, err := s.catalog.CountInstancesByStatus(ctx, parsed)
	return n, translate(err, "count copies")
}

// ListBooks returns one page of books ordered by title.
func (s *Service) ListBooks(ctx context.Context, actor *permissions.Actor, page int) (*Page[entities.Book], error) {
	if err := s.authorize(actor, OpListBooks); err != nil {
		return nil, err
	}
	page, limit, offset := window(page)
	books, total, err := s.catalog.ListBooks(ctx, limit, offset)
	if err != nil {
		return nil, translate(err, "list books")
	}
	return newPage(books, page, total)
}

// ListAuthors returns one page of authors ordered by name.
func (s *Service) ListAuthors(ctx context.Context, actor *permissions.Actor, page int) (*Page[entities.Author], error) {
	if err := s.authorize(actor, OpListAuthors); err != nil {
		return nil, err
	}
	page, limit, offset := window(page)
	authors, total, err := s.catalog.ListAuthors(ctx, limit, offset)
	if err != nil {
		return nil, translate(err, "list authors")
	}
	return newPage(authors, page, total)
}

// ListAuthorsWithBookCounts returns one page of authors, each with the
// number of books they wrote.
func (s *Service) ListAuthorsWithBookCounts(ctx context.Context, actor *permissions.Actor, page int) (*Page[entities.AuthorBookCount], error) {
	if err := s.authorize(actor, OpListAuthors); err != nil {
		return nil, err
	}
	page, limit, offset := window(page)
	rows, total, err := s.catalog.ListAuthorsWithBookCounts(ctx, limit, offset)
	if err != nil {
		return nil, translate(err, "list authors")
	}
	return newPage(rows, page, total)
}

// ListGenres returns one page of genres ordered by name.
func (s *Service) ListGenres(ctx context.Context, actor *permissions.Actor, page int) (*Page[entities.Genre], error) {
	if err := s.authorize(actor, OpListGenres); err != nil {
		return nil, err
	}
	page, limit, offset := window(page)
	genres, total, err := s.catalog.ListGenres(ctx, limit, offset)
	if err != nil {
		return nil, translate(err, "list genres")
	}
	return newPage(genres, page, total)
}

// GetBook returns a book with its author, genres and copies.
func (s *Service) GetBook(ctx context.Context, actor *permissions.Actor, id uint) (*entities.Book, error) {
	if err := s.authorize(actor, OpGetBook); err != nil {
		return nil, err
	}
	book, err := s.catalog.GetBook(ctx, id)
	if err != nil {
		return nil, translate(err, "get book")
	}
	return book, nil
}

// GetAuthor returns an author with their books.
func (s *Service) GetAuthor(ctx context.Context, actor *permissions.Actor, id uint) (*entities.Author, error) {
	if err := s.authorize(actor, OpGetAuthor); err != nil {
		return nil, err
	}
	author, err := s.catalog.GetAuthor(ctx, id)
	if err != nil {
		return nil, translate(err, "get author")
	}
	return author, nil
}

// ListLoansForUser returns the copies the actor has on loan, soonest due
// first.
func (s *Service) ListLoansForUser(ctx context.Context, actor *permissions.Actor, page int) (*Page[entities.BookInstance], error) {
	if err := s.authorize(actor, OpListLoansForUser); err != nil {
		return nil, err
	}
	borrower := actor.UserID
	return s.listLoans(ctx, &borrower, page)
}

// ListAllOutstandingLoans returns every copy on loan, soonest due first.
func (s *Service) ListAllOutstandingLoans(ctx context.Context, actor *permissions.Actor, page int) (*Page[entities.BookInstance], error) {
	if err := s.authorize(actor, OpListAllOutstandingLoans); err != nil {
		return nil, err
	}
	return s.listLoans(ctx, nil, page)
}

func (s *Service) listLoans(ctx context.Context, borrowerID *uint, page int) (*Page[entities.BookInstance], error) {
	page, limit, offset := window(page)
	loans, total, err := s.loans.ListOnLoan(ctx, borrowerID, limit, offset)
	if err != nil {
		return nil, translate(err, "list loans")
	}
	return newPage(loans, page, total)
}
