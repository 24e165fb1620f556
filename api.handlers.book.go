package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// CreateBook godoc
// @Summary      Create a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        book  body      BookInput  true  "book fields"
// @Success      201   {object}  APIResponse{data=BookView}
// @Failure      400   {object}  APIError
// @Router       /api/v1/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	fields, err := DecodeFields(w, r, api.config.Server.MaxBodyBytes)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}

	book, err := api.catalog.CreateBook(r.Context(), fields)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to create book",
		zap.String("book.id", book.ID),
		zap.String("author.id", book.AuthorID),
		zap.String("request.id", requestID),
	)
	api.WriteSuccess(w, r, http.StatusCreated, GenericResponse(requestID, book))
}

// ListBooks godoc
// @Summary      List books
// @Tags         books
// @Produce      json
// @Param        search  query     string  false  "case-insensitive match on title, isbn, genre and description"
// @Param        sort    query     string  false  "title, publishedYear, isbn or genre, prefixed by - for descending order"
// @Param        limit   query     int     false  "max number of books"
// @Success      200     {object}  APIResponse{data=[]BookView}
// @Failure      400     {object}  APIError
// @Router       /api/v1/books [get]
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q, err := api.validator.ValidateListQuery(r.URL.Query(), BookSortSafelist)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}

	books, err := api.catalog.ListBooks(r.Context(), q)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.WriteSuccess(w, r, http.StatusOK, CollectionResponse(requestID, books))
}

// GetBook godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "book id"
// @Success      200  {object}  APIResponse{data=BookView}
// @Failure      404  {object}  APIError
// @Router       /api/v1/books/{id} [get]
func (api *APIHandler) GetBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	book, err := api.catalog.GetBook(r.Context(), ps.ByName("id"))
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.WriteSuccess(w, r, http.StatusOK, GenericResponse(requestID, book))
}

// UpdateBook godoc
// @Summary      Replace a book
// @Description  All of title, authorId, isbn and publishedYear must be provided.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      string     true  "book id"
// @Param        book  body      BookInput  true  "book fields"
// @Success      200   {object}  APIResponse{data=BookView}
// @Failure      400   {object}  APIError
// @Failure      404   {object}  APIError
// @Router       /api/v1/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	api.updateBook(w, r, ps.ByName("id"), false)
}

// PatchBook godoc
// @Summary      Partially update a book
// @Description  Only the provided fields are validated and replaced.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      string     true  "book id"
// @Param        book  body      BookInput  true  "book fields"
// @Success      200   {object}  APIResponse{data=BookView}
// @Failure      400   {object}  APIError
// @Failure      404   {object}  APIError
// @Router       /api/v1/books/{id} [patch]
func (api *APIHandler) PatchBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	api.updateBook(w, r, ps.ByName("id"), true)
}

func (api *APIHandler) updateBook(w http.ResponseWriter, r *http.Request, id string, partial bool) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	fields, err := DecodeFields(w, r, api.config.Server.MaxBodyBytes)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}

	book, err := api.catalog.UpdateBook(r.Context(), id, fields, partial)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to update book",
		zap.String("book.id", book.ID),
		zap.Bool("book.partial", partial),
		zap.String("request.id", requestID),
	)
	api.WriteSuccess(w, r, http.StatusOK, GenericResponse(requestID, book))
}

// DeleteBook godoc
// @Summary      Delete a book
// @Tags         books
// @Param        id   path  string  true  "book id"
// @Success      204
// @Failure      404  {object}  APIError
// @Router       /api/v1/books/{id} [delete]
func (api *APIHandler) DeleteBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	if err := api.catalog.DeleteBook(r.Context(), id); err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to delete book",
		zap.String("book.id", id),
		zap.String("request.id", requestID),
	)
	api.WriteSuccess(w, r, http.StatusNoContent, GenericResponse(requestID, nil))
}
