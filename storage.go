package main

import (
	"context"
	"errors"
)

var (
	ErrAuthorNotFound = errors.New("author not found")
	ErrBookNotFound   = errors.New("book not found")
)

// CatalogReader defines read operations available inside a transaction.
type CatalogReader interface {
	GetAuthor(id string) (Author, error)
	GetBook(id string) (Book, error)
	ListAuthors(q ListQuery) []Author
	ListBooks(q ListQuery) []Book
	BooksByAuthor(authorID string) []Book
	AuthorNameTaken(name, exceptID string) bool
}

// CatalogWriter adds the mutations. The author books list is only
// reachable through AppendAuthorBook and RemoveAuthorBook.
type CatalogWriter interface {
	CatalogReader
	CreateAuthor(patch AuthorPatch) (Author, error)
	CreateBook(patch BookPatch) (Book, error)
	UpdateAuthor(id string, patch AuthorPatch) (Author, error)
	UpdateBook(id string, patch BookPatch) (Book, error)
	DeleteAuthor(id string) error
	DeleteBook(id string) error
	AppendAuthorBook(authorID, bookID string) error
	RemoveAuthorBook(authorID, bookID string) error
}

// CatalogStorage runs read-only or read-write transactions over the
// authors and books collections. An Update callback runs alone: no other
// transaction observes its intermediate state.
type CatalogStorage interface {
	View(ctx context.Context, fn func(tx CatalogReader) error) error
	Update(ctx context.Context, fn func(tx CatalogWriter) error) error
}
