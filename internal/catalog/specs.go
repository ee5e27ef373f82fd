package catalog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// DefaultSummary is stored for books created without a summary.
const DefaultSummary = "some book"

func newExecutors() map[EntityType]executor {
	return map[EntityType]executor{
		EntityAuthor:       authorSpec,
		EntityBook:         bookSpec,
		EntityBookInstance: instanceSpec,
		EntityGenre:        genreSpec,
	}
}

func parseUintID(raw string) (any, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, false
	}
	return uint(id), true
}

func parseUUID(raw string) (any, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return id, true
}

// reference checks that id names a stored row of model.
func reference(ctx context.Context, s *Service, model any, raw any) (uint, error) {
	id, err := asID(raw)
	if err != nil {
		return 0, err
	}
	exists, err := s.catalog.Exists(ctx, model, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, invalid(invalidChoice(raw))
	}
	return id, nil
}

func optionalReference(ctx context.Context, s *Service, model any, raw any) (*uint, error) {
	if isBlank(raw) {
		return nil, nil
	}
	id, err := reference(ctx, s, model, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

var authorFields = []string{"first_name", "last_name", "date_of_birth", "date_of_death"}

var authorSpec = &entitySpec[entities.Author]{
	entity: EntityAuthor,
	fields: map[string]setter[entities.Author]{
		"first_name": func(_ context.Context, _ *Service, a *entities.Author, raw any) (err error) {
			a.FirstName, err = asString(raw, 100)
			return err
		},
		"last_name": func(_ context.Context, _ *Service, a *entities.Author, raw any) (err error) {
			a.LastName, err = asString(raw, 100)
			return err
		},
		"date_of_birth": func(_ context.Context, _ *Service, a *entities.Author, raw any) (err error) {
			a.DateOfBirth, err = asOptionalDate(raw)
			return err
		},
		"date_of_death": func(_ context.Context, _ *Service, a *entities.Author, raw any) (err error) {
			a.DateOfDeath, err = asOptionalDate(raw)
			return err
		},
	},
	createFields: authorFields,
	updateFields: []string{"first_name", "last_name", "date_of_birth", "date_of_death"},
	check: func(_ context.Context, _ *Service, a *entities.Author, errs *fieldErrors) error {
		if a.FirstName == "" {
			errs.add("first_name", requiredMessage)
		}
		if a.LastName == "" {
			errs.add("last_name", requiredMessage)
		}
		if a.DateOfBirth != nil && a.DateOfDeath != nil && a.DateOfDeath.Before(*a.DateOfBirth) {
			errs.add("date_of_death", "Date of death cannot be before date of birth.")
		}
		return nil
	},
	parseID:  parseUintID,
	id:       func(a *entities.Author) any { return a.ID },
	describe: func(a *entities.Author) string { return a.FullName() },
}

var bookFields = []string{"title", "author", "summary", "isbn", "genre", "released"}

var bookSpec = &entitySpec[entities.Book]{
	entity: EntityBook,
	fields: map[string]setter[entities.Book]{
		"title": func(_ context.Context, _ *Service, b *entities.Book, raw any) (err error) {
			b.Title, err = asString(raw, 200)
			return err
		},
		"author": func(ctx context.Context, s *Service, b *entities.Book, raw any) error {
			id, err := optionalReference(ctx, s, &entities.Author{}, raw)
			if err != nil {
				return err
			}
			b.AuthorID, b.Author = id, nil
			return nil
		},
		"summary": func(_ context.Context, _ *Service, b *entities.Book, raw any) (err error) {
			b.Summary, err = asString(raw, 1000)
			return err
		},
		"isbn": func(_ context.Context, _ *Service, b *entities.Book, raw any) (err error) {
			b.ISBN, err = asString(raw, 17)
			return err
		},
		"genre": func(ctx context.Context, s *Service, b *entities.Book, raw any) error {
			ids, err := asIDList(raw)
			if err != nil {
				return err
			}
			genres, err := s.catalog.FindGenres(ctx, ids)
			if err != nil {
				return err
			}
			if len(genres) != len(ids) {
				found := make(map[uint]bool, len(genres))
				for _, g := range genres {
					found[g.ID] = true
				}
				for _, id := range ids {
					if !found[id] {
						return invalidf("Select a valid choice. %d is not one of the available choices.", id)
					}
				}
			}
			b.Genres = genres
			return nil
		},
		"released": func(_ context.Context, _ *Service, b *entities.Book, raw any) error {
			released, err := asOptionalDate(raw)
			if err != nil {
				return err
			}
			if released == nil {
				b.Released = time.Time{}
			} else {
				b.Released = *released
			}
			return nil
		},
	},
	createFields: bookFields,
	updateFields: bookFields,
	defaults: func(b *entities.Book) {
		if b.Summary == "" {
			b.Summary = DefaultSummary
		}
		if b.Released.IsZero() {
			b.Released = entities.DefaultReleased
		}
	},
	check: func(_ context.Context, s *Service, b *entities.Book, errs *fieldErrors) error {
		if b.Title == "" {
			errs.add("title", requiredMessage)
		}
		if b.Released.IsZero() {
			errs.add("released", requiredMessage)
		}
		switch {
		case b.ISBN == "":
			errs.add("isbn", requiredMessage)
		case s.opts.StrictISBN && !validISBN(b.ISBN):
			errs.add("isbn", fmt.Sprintf("%q is not a valid ISBN-10 or ISBN-13.", b.ISBN))
		}
		return nil
	},
	parseID:  parseUintID,
	id:       func(b *entities.Book) any { return b.ID },
	describe: func(b *entities.Book) string { return b.Title },
}

var instanceFields = []string{"book", "imprint", "due_back", "borrower", "status"}

var instanceSpec = &entitySpec[entities.BookInstance]{
	entity: EntityBookInstance,
	fields: map[string]setter[entities.BookInstance]{
		"book": func(ctx context.Context, s *Service, bi *entities.BookInstance, raw any) error {
			if isBlank(raw) {
				bi.BookID, bi.Book = 0, nil
				return nil
			}
			id, err := reference(ctx, s, &entities.Book{}, raw)
			if err != nil {
				return err
			}
			bi.BookID, bi.Book = id, nil
			return nil
		},
		"imprint": func(_ context.Context, _ *Service, bi *entities.BookInstance, raw any) (err error) {
			bi.Imprint, err = asString(raw, 200)
			return err
		},
		"due_back": func(_ context.Context, _ *Service, bi *entities.BookInstance, raw any) (err error) {
			bi.DueBack, err = asOptionalDate(raw)
			return err
		},
		"borrower": func(ctx context.Context, s *Service, bi *entities.BookInstance, raw any) error {
			id, err := optionalReference(ctx, s, &entities.User{}, raw)
			if err != nil {
				return err
			}
			bi.BorrowerID, bi.Borrower = id, nil
			return nil
		},
		"status": func(_ context.Context, _ *Service, bi *entities.BookInstance, raw any) error {
			if isBlank(raw) {
				bi.Status = ""
				return nil
			}
			s, ok := raw.(string)
			if !ok {
				return invalid(invalidChoice(raw))
			}
			status, err := entities.ParseLoanStatus(s)
			if err != nil {
				return invalid(invalidChoice(raw))
			}
			bi.Status = status
			return nil
		},
	},
	createFields: instanceFields,
	updateFields: instanceFields,
	defaults: func(bi *entities.BookInstance) {
		if bi.Status == "" {
			bi.Status = entities.LoanStatusMaintenance
		}
	},
	check: func(_ context.Context, _ *Service, bi *entities.BookInstance, errs *fieldErrors) error {
		if bi.BookID == 0 {
			errs.add("book", requiredMessage)
		}
		if bi.Imprint == "" {
			errs.add("imprint", requiredMessage)
		}
		if bi.Status == "" {
			errs.add("status", requiredMessage)
			return nil
		}
		checkLoanFields(bi, errs)
		return nil
	},
	parseID:  parseUUID,
	id:       func(bi *entities.BookInstance) any { return bi.ID },
	describe: func(bi *entities.BookInstance) string { return fmt.Sprintf("of book %d (%s)", bi.BookID, bi.Imprint) },
}

// checkLoanFields holds a copy to its loan invariant: a copy on loan has a
// due date and a borrower, any other copy has neither.
func checkLoanFields(bi *entities.BookInstance, errs *fieldErrors) {
	if bi.OnLoan() {
		if bi.DueBack == nil {
			errs.add("due_back", "A copy on loan needs a due date.")
		}
		if bi.BorrowerID == nil {
			errs.add("borrower", "A copy on loan needs a borrower.")
		}
		return
	}
	if bi.DueBack != nil {
		errs.add("due_back", "Only copies on loan have a due date.")
	}
	if bi.BorrowerID != nil {
		errs.add("borrower", "Only copies on loan have a borrower.")
	}
}

var genreSpec = &entitySpec[entities.Genre]{
	entity: EntityGenre,
	fields: map[string]setter[entities.Genre]{
		"name": func(_ context.Context, _ *Service, g *entities.Genre, raw any) (err error) {
			g.Name, err = asString(raw, 200)
			return err
		},
	},
	createFields: []string{"name"},
	updateFields: []string{"name"},
	check: func(ctx context.Context, s *Service, g *entities.Genre, errs *fieldErrors) error {
		if g.Name == "" {
			errs.add("name", requiredMessage)
			return nil
		}
		taken, err := s.catalog.GenreNameTaken(ctx, g.Name, g.ID)
		if err != nil {
			return err
		}
		if taken {
			errs.add("name", "Genre already exists (case insensitive match).")
		}
		return nil
	},
	parseID:  parseUintID,
	id:       func(g *entities.Genre) any { return g.ID },
	describe: func(g *entities.Genre) string { return g.Name },
}
