package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// CreateAuthor godoc
// @Summary      Create an author
// @Tags         authors
// @Accept       json
// @Produce      json
// @Param        author  body      AuthorInput  true  "author fields"
// @Success      201     {object}  APIResponse{data=Author}
// @Failure      400     {object}  APIError
// @Router       /api/v1/authors [post]
func (api *APIHandler) CreateAuthor(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	fields, err := DecodeFields(w, r, api.config.Server.MaxBodyBytes)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}

	author, err := api.catalog.CreateAuthor(r.Context(), fields)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to create author",
		zap.String("author.id", author.ID),
		zap.String("request.id", requestID),
	)
	api.WriteSuccess(w, r, http.StatusCreated, GenericResponse(requestID, author))
}

// ListAuthors godoc
// @Summary      List authors
// @Tags         authors
// @Produce      json
// @Param        search  query     string  false  "case-insensitive match on name and biography"
// @Param        sort    query     string  false  "name, bookCount or birthDate, prefixed by - for descending order"
// @Param        limit   query     int     false  "max number of authors"
// @Success      200     {object}  APIResponse{data=[]Author}
// @Failure      400     {object}  APIError
// @Router       /api/v1/authors [get]
func (api *APIHandler) ListAuthors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q, err := api.validator.ValidateListQuery(r.URL.Query(), AuthorSortSafelist)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}

	authors, err := api.catalog.ListAuthors(r.Context(), q)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.WriteSuccess(w, r, http.StatusOK, CollectionResponse(requestID, authors))
}

// GetAuthor godoc
// @Summary      Get an author
// @Tags         authors
// @Produce      json
// @Param        id   path      string  true  "author id"
// @Success      200  {object}  APIResponse{data=Author}
// @Failure      404  {object}  APIError
// @Router       /api/v1/authors/{id} [get]
func (api *APIHandler) GetAuthor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	author, err := api.catalog.GetAuthor(r.Context(), ps.ByName("id"))
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.WriteSuccess(w, r, http.StatusOK, GenericResponse(requestID, author))
}

// ListAuthorBooks godoc
// @Summary      List the books of an author
// @Tags         authors
// @Produce      json
// @Param        id   path      string  true  "author id"
// @Success      200  {object}  APIResponse{data=[]BookView}
// @Failure      404  {object}  APIError
// @Router       /api/v1/authors/{id}/books [get]
func (api *APIHandler) ListAuthorBooks(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	books, err := api.catalog.ListAuthorBooks(r.Context(), ps.ByName("id"))
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.WriteSuccess(w, r, http.StatusOK, CollectionResponse(requestID, books))
}

// UpdateAuthor godoc
// @Summary      Update an author
// @Description  Only the provided fields are replaced. A null biography or birthDate clears it.
// @Tags         authors
// @Accept       json
// @Produce      json
// @Param        id      path      string       true  "author id"
// @Param        author  body      AuthorInput  true  "author fields"
// @Success      200     {object}  APIResponse{data=Author}
// @Failure      400     {object}  APIError
// @Failure      404     {object}  APIError
// @Router       /api/v1/authors/{id} [put]
// @Router       /api/v1/authors/{id} [patch]
func (api *APIHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	fields, err := DecodeFields(w, r, api.config.Server.MaxBodyBytes)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}

	author, err := api.catalog.UpdateAuthor(r.Context(), ps.ByName("id"), fields)
	if err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to update author",
		zap.String("author.id", author.ID),
		zap.String("request.id", requestID),
	)
	api.WriteSuccess(w, r, http.StatusOK, GenericResponse(requestID, author))
}

// DeleteAuthor godoc
// @Summary      Delete an author without books
// @Tags         authors
// @Param        id   path  string  true  "author id"
// @Success      204
// @Failure      400  {object}  APIError
// @Failure      404  {object}  APIError
// @Router       /api/v1/authors/{id} [delete]
func (api *APIHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id := ps.ByName("id")
	if err := api.catalog.DeleteAuthor(r.Context(), id); err != nil {
		api.WriteAppError(w, r, err)
		return
	}
	api.GetLoggerFromContext(r.Context()).Info("success to delete author",
		zap.String("author.id", id),
		zap.String("request.id", requestID),
	)
	api.WriteSuccess(w, r, http.StatusNoContent, GenericResponse(requestID, nil))
}
