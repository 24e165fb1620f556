package main

import (
	"errors"
	"fmt"
)

const msgAuthorHasBooks = "cannot delete author with existing books"

// LinkBook appends a freshly created book to its author's books list.
// The author was checked by validation, so a miss is a broken contract.
func LinkBook(tx CatalogWriter, book Book) error {
	if err := tx.AppendAuthorBook(book.AuthorID, book.ID); err != nil {
		return Internal(fmt.Errorf("integrity: link book %s to author %s: %w", book.ID, book.AuthorID, err))
	}
	return nil
}

// RelinkBook moves a book from its old author's list to the new author's list.
// The old author may be gone already; the new one must exist.
func RelinkBook(tx CatalogWriter, bookID, oldAuthorID, newAuthorID string) error {
	if oldAuthorID == newAuthorID {
		return nil
	}
	err := tx.RemoveAuthorBook(oldAuthorID, bookID)
	if err != nil && !errors.Is(err, ErrAuthorNotFound) {
		return Internal(fmt.Errorf("integrity: unlink book %s from author %s: %w", bookID, oldAuthorID, err))
	}
	if err = tx.AppendAuthorBook(newAuthorID, bookID); err != nil {
		return Internal(fmt.Errorf("integrity: link book %s to author %s: %w", bookID, newAuthorID, err))
	}
	return nil
}

// UnlinkBook removes a book from its author's list. It must run before
// the book record is discarded.
func UnlinkBook(tx CatalogWriter, book Book) error {
	err := tx.RemoveAuthorBook(book.AuthorID, book.ID)
	if err != nil && !errors.Is(err, ErrAuthorNotFound) {
		return Internal(fmt.Errorf("integrity: unlink book %s from author %s: %w", book.ID, book.AuthorID, err))
	}
	return nil
}

// EnsureAuthorRemovable blocks the deletion of an author still referenced by books.
func EnsureAuthorRemovable(tx CatalogReader, authorID string) error {
	if len(tx.BooksByAuthor(authorID)) > 0 {
		return BadRequest(msgAuthorHasBooks)
	}
	return nil
}
