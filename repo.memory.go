package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	_ CatalogStorage = (*memoryCatalog)(nil) // ensure memoryCatalog implements CatalogStorage.
	_ CatalogWriter  = (*memoryTx)(nil)      // ensure memoryTx implements CatalogWriter.
)

type authorRecord struct {
	seq    uint64
	author Author
}

type bookRecord struct {
	seq  uint64
	book Book
}

// memoryCatalog keeps authors and books in process memory. A single
// RWMutex guards both collections so every Update is one atomic unit.
type memoryCatalog struct {
	logger  *zap.Logger
	ids     UIDHandler
	mu      sync.RWMutex
	seq     uint64
	authors map[string]*authorRecord
	books   map[string]*bookRecord
}

// NewMemoryCatalogStorage provides an empty in-memory catalog.
func NewMemoryCatalogStorage(logger *zap.Logger, ids UIDHandler) CatalogStorage {
	return &memoryCatalog{
		logger:  logger,
		ids:     ids,
		authors: make(map[string]*authorRecord),
		books:   make(map[string]*bookRecord),
	}
}

// View runs fn under the read lock.
func (mc *memoryCatalog) View(ctx context.Context, fn func(tx CatalogReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return fn(&memoryTx{catalog: mc})
}

// Update runs fn under the write lock. Mutations made by fn are reverted
// when it returns an error.
func (mc *memoryCatalog) Update(ctx context.Context, fn func(tx CatalogWriter) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	tx := &memoryTx{catalog: mc, writable: true}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// memoryTx is valid only during the View or Update call that created it.
type memoryTx struct {
	catalog  *memoryCatalog
	writable bool
	undo     []func()
}

func (tx *memoryTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	if len(tx.undo) > 0 {
		tx.catalog.logger.Debug("memory catalog: transaction rolled back", zap.Int("steps", len(tx.undo)))
	}
	tx.undo = nil
}

func (tx *memoryTx) nextSeq() uint64 {
	tx.catalog.seq++
	return tx.catalog.seq
}

func (tx *memoryTx) GetAuthor(id string) (Author, error) {
	rec, ok := tx.catalog.authors[id]
	if !ok {
		return Author{}, ErrAuthorNotFound
	}
	return rec.author.Clone(), nil
}

func (tx *memoryTx) GetBook(id string) (Book, error) {
	rec, ok := tx.catalog.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return rec.book.Clone(), nil
}

// ListAuthors searches name and biography, then sorts by name, bookCount or birthDate.
func (tx *memoryTx) ListAuthors(q ListQuery) []Author {
	records := make([]*authorRecord, 0, len(tx.catalog.authors))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, rec := range tx.catalog.authors {
		if needle != "" && !containsFold(needle, rec.author.Name, deref(rec.author.Biography)) {
			continue
		}
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b *authorRecord) int { return compareUint(a.seq, b.seq) })

	if cmp := authorComparator(q.Sort); cmp != nil {
		slices.SortStableFunc(records, func(a, b *authorRecord) int {
			if q.Descending {
				return cmp(b.author, a.author)
			}
			return cmp(a.author, b.author)
		})
	}

	authors := make([]Author, 0, len(records))
	for _, rec := range records {
		if q.Limit > 0 && len(authors) == q.Limit {
			break
		}
		authors = append(authors, rec.author.Clone())
	}
	return authors
}

// ListBooks searches title, isbn, genre and description, then sorts by
// title, publishedYear, isbn or genre.
func (tx *memoryTx) ListBooks(q ListQuery) []Book {
	records := make([]*bookRecord, 0, len(tx.catalog.books))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, rec := range tx.catalog.books {
		b := rec.book
		if needle != "" && !containsFold(needle, b.Title, b.ISBN, deref(b.Genre), deref(b.Description)) {
			continue
		}
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b *bookRecord) int { return compareUint(a.seq, b.seq) })

	if cmp := bookComparator(q.Sort); cmp != nil {
		slices.SortStableFunc(records, func(a, b *bookRecord) int {
			if q.Descending {
				return cmp(b.book, a.book)
			}
			return cmp(a.book, b.book)
		})
	}

	books := make([]Book, 0, len(records))
	for _, rec := range records {
		if q.Limit > 0 && len(books) == q.Limit {
			break
		}
		books = append(books, rec.book.Clone())
	}
	return books
}

// BooksByAuthor scans the books collection, so it reflects the true set
// of books referencing the author regardless of the author's books list.
func (tx *memoryTx) BooksByAuthor(authorID string) []Book {
	var records []*bookRecord
	for _, rec := range tx.catalog.books {
		if rec.book.AuthorID == authorID {
			records = append(records, rec)
		}
	}
	slices.SortFunc(records, func(a, b *bookRecord) int { return compareUint(a.seq, b.seq) })
	books := make([]Book, 0, len(records))
	for _, rec := range records {
		books = append(books, rec.book.Clone())
	}
	return books
}

func (tx *memoryTx) AuthorNameTaken(name, exceptID string) bool {
	name = strings.TrimSpace(name)
	for id, rec := range tx.catalog.authors {
		if id != exceptID && strings.EqualFold(rec.author.Name, name) {
			return true
		}
	}
	return false
}

func (tx *memoryTx) mustWrite() error {
	if !tx.writable {
		return fmt.Errorf("memory catalog: write attempted in a read-only transaction")
	}
	return nil
}

func (tx *memoryTx) CreateAuthor(patch AuthorPatch) (Author, error) {
	if err := tx.mustWrite(); err != nil {
		return Author{}, err
	}
	author := Author{ID: tx.catalog.ids.Generate(AuthorIDPrefix), Books: []string{}}
	patch.Apply(&author)
	tx.catalog.authors[author.ID] = &authorRecord{seq: tx.nextSeq(), author: author}
	tx.undo = append(tx.undo, func() { delete(tx.catalog.authors, author.ID) })
	return author.Clone(), nil
}

func (tx *memoryTx) CreateBook(patch BookPatch) (Book, error) {
	if err := tx.mustWrite(); err != nil {
		return Book{}, err
	}
	book := Book{ID: tx.catalog.ids.Generate(BookIDPrefix)}
	patch.Apply(&book)
	tx.catalog.books[book.ID] = &bookRecord{seq: tx.nextSeq(), book: book}
	tx.undo = append(tx.undo, func() { delete(tx.catalog.books, book.ID) })
	return book.Clone(), nil
}

func (tx *memoryTx) UpdateAuthor(id string, patch AuthorPatch) (Author, error) {
	if err := tx.mustWrite(); err != nil {
		return Author{}, err
	}
	rec, ok := tx.catalog.authors[id]
	if !ok {
		return Author{}, ErrAuthorNotFound
	}
	previous := rec.author.Clone()
	patch.Apply(&rec.author)
	tx.undo = append(tx.undo, func() { rec.author = previous })
	return rec.author.Clone(), nil
}

func (tx *memoryTx) UpdateBook(id string, patch BookPatch) (Book, error) {
	if err := tx.mustWrite(); err != nil {
		return Book{}, err
	}
	rec, ok := tx.catalog.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	previous := rec.book.Clone()
	patch.Apply(&rec.book)
	tx.undo = append(tx.undo, func() { rec.book = previous })
	return rec.book.Clone(), nil
}

func (tx *memoryTx) DeleteAuthor(id string) error {
	if err := tx.mustWrite(); err != nil {
		return err
	}
	rec, ok := tx.catalog.authors[id]
	if !ok {
		return ErrAuthorNotFound
	}
	delete(tx.catalog.authors, id)
	tx.undo = append(tx.undo, func() { tx.catalog.authors[id] = rec })
	return nil
}

func (tx *memoryTx) DeleteBook(id string) error {
	if err := tx.mustWrite(); err != nil {
		return err
	}
	rec, ok := tx.catalog.books[id]
	if !ok {
		return ErrBookNotFound
	}
	delete(tx.catalog.books, id)
	tx.undo = append(tx.undo, func() { tx.catalog.books[id] = rec })
	return nil
}

func (tx *memoryTx) AppendAuthorBook(authorID, bookID string) error {
	if err := tx.mustWrite(); err != nil {
		return err
	}
	rec, ok := tx.catalog.authors[authorID]
	if !ok {
		return ErrAuthorNotFound
	}
	previous := rec.author.Books
	rec.author.Books = append(slices.Clone(previous), bookID)
	tx.undo = append(tx.undo, func() { rec.author.Books = previous })
	return nil
}

func (tx *memoryTx) RemoveAuthorBook(authorID, bookID string) error {
	if err := tx.mustWrite(); err != nil {
		return err
	}
	rec, ok := tx.catalog.authors[authorID]
	if !ok {
		return ErrAuthorNotFound
	}
	previous := rec.author.Books
	rec.author.Books = slices.DeleteFunc(slices.Clone(previous), func(id string) bool { return id == bookID })
	tx.undo = append(tx.undo, func() { rec.author.Books = previous })
	return nil
}

func authorComparator(key string) func(a, b Author) int {
	switch key {
	case "name":
		return func(a, b Author) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case "bookCount":
		return func(a, b Author) int { return a.BookCount() - b.BookCount() }
	case "birthDate":
		return func(a, b Author) int {
			switch {
			case a.BirthDate == nil && b.BirthDate == nil:
				return 0
			case a.BirthDate == nil:
				return -1
			case b.BirthDate == nil:
				return 1
			}
			return a.BirthDate.Compare(*b.BirthDate)
		}
	}
	return nil
}

func bookComparator(key string) func(a, b Book) int {
	switch key {
	case "title":
		return func(a, b Book) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case "publishedYear":
		return func(a, b Book) int { return a.PublishedYear - b.PublishedYear }
	case "isbn":
		return func(a, b Book) int { return strings.Compare(a.ISBN, b.ISBN) }
	case "genre":
		return func(a, b Book) int {
			return strings.Compare(strings.ToLower(deref(a.Genre)), strings.ToLower(deref(b.Genre)))
		}
	}
	return nil
}

func containsFold(lowerNeedle string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), lowerNeedle) {
			return true
		}
	}
	return false
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
