package main

import (
	"strings"
	"time"
)

// Author represents an author entity. Books lists the ids of the books
// referencing this author in creation order and is only ever changed by
// the referential integrity rules.
type Author struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Books     []string   `json:"books"`
	Biography *string    `json:"biography,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
}

// BookCount returns the number of books owned by the author.
func (a Author) BookCount() int {
	return len(a.Books)
}

// Clone returns a deep copy so callers never share the stored books slice.
func (a Author) Clone() Author {
	c := a
	c.Books = append(make([]string, 0, len(a.Books)), a.Books...)
	if a.Biography != nil {
		bio := *a.Biography
		c.Biography = &bio
	}
	if a.BirthDate != nil {
		bd := *a.BirthDate
		c.BirthDate = &bd
	}
	return c
}

// Book represents a book entity.
type Book struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	AuthorID      string  `json:"authorId"`
	ISBN          string  `json:"isbn"`
	PublishedYear int     `json:"publishedYear"`
	Genre         *string `json:"genre,omitempty"`
	Description   *string `json:"description,omitempty"`
}

func (b Book) Clone() Book {
	c := b
	if b.Genre != nil {
		g := *b.Genre
		c.Genre = &g
	}
	if b.Description != nil {
		d := *b.Description
		c.Description = &d
	}
	return c
}

// AuthorSummary is embedded into book payloads.
type AuthorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookView is a book as sent to clients, with its author resolved.
type BookView struct {
	Book
	Author *AuthorSummary `json:"author"`
}

// Fields is a parsed request body: field name to decoded JSON value.
type Fields map[string]interface{}

// Has reports whether the key was present in the request, even if null.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Optional is one field of a patch: either unset or set to a value.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// AuthorPatch lists the author fields to replace. A set nil pointer clears the field.
type AuthorPatch struct {
	Name      Optional[string]
	Biography Optional[*string]
	BirthDate Optional[*time.Time]
}

// Apply replaces the fields set in the patch on the author.
func (p AuthorPatch) Apply(a *Author) {
	if p.Name.Set {
		a.Name = strings.TrimSpace(p.Name.Value)
	}
	if p.Biography.Set {
		a.Biography = p.Biography.Value
	}
	if p.BirthDate.Set {
		a.BirthDate = p.BirthDate.Value
	}
}

// BookPatch lists the book fields to replace. A set nil pointer clears the field.
type BookPatch struct {
	Title         Optional[string]
	AuthorID      Optional[string]
	ISBN          Optional[string]
	PublishedYear Optional[int]
	Genre         Optional[*string]
	Description   Optional[*string]
}

// Apply replaces the fields set in the patch on the book.
func (p BookPatch) Apply(b *Book) {
	if p.Title.Set {
		b.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.AuthorID.Set {
		b.AuthorID = p.AuthorID.Value
	}
	if p.ISBN.Set {
		b.ISBN = p.ISBN.Value
	}
	if p.PublishedYear.Set {
		b.PublishedYear = p.PublishedYear.Value
	}
	if p.Genre.Set {
		b.Genre = p.Genre.Value
	}
	if p.Description.Set {
		b.Description = p.Description.Value
	}
}

// ListQuery holds the listing options shared by authors and books.
type ListQuery struct {
	Search     string
	Sort       string
	Descending bool
	Limit      int
}

// AuthorInput documents the author payload accepted by create and update.
type AuthorInput struct {
	Name      string  `json:"name" example:"Chinua Achebe"`
	Biography *string `json:"biography,omitempty"`
	BirthDate *string `json:"birthDate,omitempty" example:"1930-11-16"`
}

// BookInput documents the book payload accepted by create and update.
type BookInput struct {
	Title         string  `json:"title" example:"Things Fall Apart"`
	AuthorID      string  `json:"authorId"`
	ISBN          string  `json:"isbn" example:"978-0-385-47454-2"`
	PublishedYear int     `json:"publishedYear" example:"1958"`
	Genre         *string `json:"genre,omitempty"`
	Description   *string `json:"description,omitempty"`
}
