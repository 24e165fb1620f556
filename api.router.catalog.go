package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupCatalogRoutes injects the authors and books endpoints.
func (api *APIHandler) SetupCatalogRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET(APIPrefix+"/authors", m.public(api.ListAuthors))
	router.POST(APIPrefix+"/authors", m.public(api.CreateAuthor))
	router.GET(APIPrefix+"/authors/:id", m.public(api.GetAuthor))
	router.PUT(APIPrefix+"/authors/:id", m.public(api.UpdateAuthor))
	router.PATCH(APIPrefix+"/authors/:id", m.public(api.UpdateAuthor))
	router.DELETE(APIPrefix+"/authors/:id", m.public(api.DeleteAuthor))
	router.GET(APIPrefix+"/authors/:id/books", m.public(api.ListAuthorBooks))

	router.GET(APIPrefix+"/books", m.public(api.ListBooks))
	router.POST(APIPrefix+"/books", m.public(api.CreateBook))
	router.GET(APIPrefix+"/books/:id", m.public(api.GetBook))
	router.PUT(APIPrefix+"/books/:id", m.public(api.UpdateBook))
	router.PATCH(APIPrefix+"/books/:id", m.public(api.PatchBook))
	router.DELETE(APIPrefix+"/books/:id", m.public(api.DeleteBook))
	return router
}
