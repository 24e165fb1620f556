package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const msgAuthorNameTaken = "Author with this name already exists"

type CatalogServiceProvider interface {
	CreateAuthor(ctx context.Context, fields Fields) (Author, error)
	GetAuthor(ctx context.Context, id string) (Author, error)
	ListAuthors(ctx context.Context, q ListQuery) ([]Author, error)
	UpdateAuthor(ctx context.Context, id string, fields Fields) (Author, error)
	DeleteAuthor(ctx context.Context, id string) error
	ListAuthorBooks(ctx context.Context, id string) ([]BookView, error)
	CreateBook(ctx context.Context, fields Fields) (BookView, error)
	GetBook(ctx context.Context, id string) (BookView, error)
	ListBooks(ctx context.Context, q ListQuery) ([]BookView, error)
	UpdateBook(ctx context.Context, id string, fields Fields, partial bool) (BookView, error)
	DeleteBook(ctx context.Context, id string) error
}

// CatalogService runs every request inside a single storage transaction:
// validation, the mutation and the integrity updates commit together.
type CatalogService struct {
	logger    *zap.Logger
	clock     Clocker
	validator *Validator
	storage   CatalogStorage
	queue     Queuer
}

func NewCatalogService(logger *zap.Logger, clock Clocker, storage CatalogStorage, queue Queuer) CatalogServiceProvider {
	return &CatalogService{
		logger:    logger,
		clock:     clock,
		validator: NewValidator(clock),
		storage:   storage,
		queue:     queue,
	}
}

func (cs *CatalogService) CreateAuthor(ctx context.Context, fields Fields) (Author, error) {
	patch, err := cs.validator.ValidateAuthorInput(fields)
	if err != nil {
		return Author{}, err
	}

	var author Author
	err = cs.storage.Update(ctx, func(tx CatalogWriter) error {
		if tx.AuthorNameTaken(patch.Name.Value, "") {
			return BadRequest(msgAuthorNameTaken)
		}
		author, err = tx.CreateAuthor(patch)
		return err
	})
	if err != nil {
		return Author{}, err
	}
	cs.publish(ctx, CreateQueue, NewCatalogEvent(EntityAuthor, author.ID, cs.clock.Now(), author))
	return author, nil
}

func (cs *CatalogService) GetAuthor(ctx context.Context, id string) (Author, error) {
	var author Author
	err := cs.storage.View(ctx, func(tx CatalogReader) error {
		var err error
		author, err = tx.GetAuthor(id)
		return asNotFound(err)
	})
	return author, err
}

func (cs *CatalogService) ListAuthors(ctx context.Context, q ListQuery) ([]Author, error) {
	var authors []Author
	err := cs.storage.View(ctx, func(tx CatalogReader) error {
		authors = tx.ListAuthors(q)
		return nil
	})
	return authors, err
}

func (cs *CatalogService) UpdateAuthor(ctx context.Context, id string, fields Fields) (Author, error) {
	var author Author
	err := cs.storage.Update(ctx, func(tx CatalogWriter) error {
		if _, err := tx.GetAuthor(id); err != nil {
			return asNotFound(err)
		}
		patch, err := cs.validator.ValidateAuthorPatch(fields)
		if err != nil {
			return err
		}
		if patch.Name.Set && tx.AuthorNameTaken(patch.Name.Value, id) {
			return BadRequest(msgAuthorNameTaken)
		}
		author, err = tx.UpdateAuthor(id, patch)
		return asNotFound(err)
	})
	if err != nil {
		return Author{}, err
	}
	cs.publish(ctx, UpdateQueue, NewCatalogEvent(EntityAuthor, author.ID, cs.clock.Now(), author))
	return author, nil
}

func (cs *CatalogService) DeleteAuthor(ctx context.Context, id string) error {
	err := cs.storage.Update(ctx, func(tx CatalogWriter) error {
		if _, err := tx.GetAuthor(id); err != nil {
			return asNotFound(err)
		}
		if err := EnsureAuthorRemovable(tx, id); err != nil {
			return err
		}
		return asNotFound(tx.DeleteAuthor(id))
	})
	if err != nil {
		return err
	}
	cs.publish(ctx, DeleteQueue, NewCatalogEvent(EntityAuthor, id, cs.clock.Now(), nil))
	return nil
}

// ListAuthorBooks returns the author's books in the order of its books list.
func (cs *CatalogService) ListAuthorBooks(ctx context.Context, id string) ([]BookView, error) {
	var views []BookView
	err := cs.storage.View(ctx, func(tx CatalogReader) error {
		author, err := tx.GetAuthor(id)
		if err != nil {
			return asNotFound(err)
		}
		views = make([]BookView, 0, len(author.Books))
		for _, bookID := range author.Books {
			book, err := tx.GetBook(bookID)
			if err != nil {
				return Internal(fmt.Errorf("author %s references missing book %s: %w", id, bookID, err))
			}
			views = append(views, viewOf(tx, book))
		}
		return nil
	})
	return views, err
}

func (cs *CatalogService) CreateBook(ctx context.Context, fields Fields) (BookView, error) {
	var view BookView
	err := cs.storage.Update(ctx, func(tx CatalogWriter) error {
		patch, err := cs.validator.ValidateBookInput(fields, authorExists(tx))
		if err != nil {
			return err
		}
		book, err := tx.CreateBook(patch)
		if err != nil {
			return err
		}
		if err = LinkBook(tx, book); err != nil {
			return err
		}
		view = viewOf(tx, book)
		return nil
	})
	if err != nil {
		return BookView{}, err
	}
	cs.publish(ctx, CreateQueue, NewCatalogEvent(EntityBook, view.ID, cs.clock.Now(), view.Book))
	return view, nil
}

func (cs *CatalogService) GetBook(ctx context.Context, id string) (BookView, error) {
	var view BookView
	err := cs.storage.View(ctx, func(tx CatalogReader) error {
		book, err := tx.GetBook(id)
		if err != nil {
			return asNotFound(err)
		}
		view = viewOf(tx, book)
		return nil
	})
	return view, err
}

func (cs *CatalogService) ListBooks(ctx context.Context, q ListQuery) ([]BookView, error) {
	var views []BookView
	err := cs.storage.View(ctx, func(tx CatalogReader) error {
		books := tx.ListBooks(q)
		views = make([]BookView, 0, len(books))
		for _, book := range books {
			views = append(views, viewOf(tx, book))
		}
		return nil
	})
	return views, err
}

// UpdateBook replaces the provided fields. With partial unset the full set
// of required fields must be present, as for a creation.
func (cs *CatalogService) UpdateBook(ctx context.Context, id string, fields Fields, partial bool) (BookView, error) {
	var view BookView
	err := cs.storage.Update(ctx, func(tx CatalogWriter) error {
		old, err := tx.GetBook(id)
		if err != nil {
			return asNotFound(err)
		}
		validate := cs.validator.ValidateBookInput
		if partial {
			validate = cs.validator.ValidateBookPatch
		}
		patch, err := validate(fields, authorExists(tx))
		if err != nil {
			return err
		}
		book, err := tx.UpdateBook(id, patch)
		if err != nil {
			return asNotFound(err)
		}
		if err = RelinkBook(tx, id, old.AuthorID, book.AuthorID); err != nil {
			return err
		}
		view = viewOf(tx, book)
		return nil
	})
	if err != nil {
		return BookView{}, err
	}
	cs.publish(ctx, UpdateQueue, NewCatalogEvent(EntityBook, view.ID, cs.clock.Now(), view.Book))
	return view, nil
}

func (cs *CatalogService) DeleteBook(ctx context.Context, id string) error {
	err := cs.storage.Update(ctx, func(tx CatalogWriter) error {
		book, err := tx.GetBook(id)
		if err != nil {
			return asNotFound(err)
		}
		if err = UnlinkBook(tx, book); err != nil {
			return err
		}
		return asNotFound(tx.DeleteBook(id))
	})
	if err != nil {
		return err
	}
	cs.publish(ctx, DeleteQueue, NewCatalogEvent(EntityBook, id, cs.clock.Now(), nil))
	return nil
}

// publish never fails the request: the change is already committed.
// The push outlives the request so a client leaving after the commit does not drop the event.
func (cs *CatalogService) publish(ctx context.Context, qid string, event CatalogEvent) {
	if err := cs.queue.Push(context.WithoutCancel(ctx), qid, event); err != nil {
		cs.logger.Error("service: failed to push event to queue",
			zap.String("qid", qid),
			zap.String("event.entity", event.Entity),
			zap.String("event.id", event.EntityID),
			zap.Error(err),
		)
	}
}

func authorExists(tx CatalogReader) func(string) bool {
	return func(id string) bool {
		_, err := tx.GetAuthor(id)
		return err == nil
	}
}

func viewOf(tx CatalogReader, book Book) BookView {
	view := BookView{Book: book}
	if author, err := tx.GetAuthor(book.AuthorID); err == nil {
		view.Author = &AuthorSummary{ID: author.ID, Name: author.Name}
	}
	return view
}

// asNotFound maps the storage sentinels to the NotFound taxonomy error.
func asNotFound(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAuthorNotFound):
		return NotFound("Author")
	case errors.Is(err, ErrBookNotFound):
		return NotFound("Book")
	}
	return err
}
