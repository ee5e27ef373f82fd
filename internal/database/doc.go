// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and schema bootstrap
//	├── catalog/         # Authors, books, genres and copies: counts, listings, writes
//	├── loans/           # Outstanding loans and due-date updates
//	├── users/           # Users, API token hashes and permission flags
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./locallibrary.db", "warn")
//
//	catalogRepo := catalog.NewRepository(db.DB)
//	loansRepo := loans.NewRepository(db.DB)
//
//	books, total, err := catalogRepo.ListBooks(ctx, 10, 0)
//	mine, total, err := loansRepo.ListOnLoan(ctx, &userID, 10, 0)
//
// Repositories return gorm.ErrRecordNotFound and the sentinel errors declared
// in the entities package unchanged; translating them into the catalog error
// taxonomy is the service layer's job.
//
// # Delete Policies
//
// Delete rules live in gorm hooks on the models so that every caller gets them:
//
//   - deleting an author leaves its books with an unknown author
//   - deleting a book with remaining copies fails with entities.ErrBookHasCopies
//   - deleting a book or a genre removes the book_genres links
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface check in internal/interfaces/checks.go
package database
