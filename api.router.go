package main

import (
	_ "github.com/jeamon/library-catalog/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

const APIPrefix = "/api/v1"

// MiddlewareMap contains middlwares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public MiddlewareFunc
	ops    MiddlewareFunc
}

// SetupRoutes injects public, catalog and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.HandleMethodNotAllowed = true
	router.NotFound = HandleToHandler(m.public(api.NotFound))
	router.MethodNotAllowed = HandleToHandler(m.public(api.MethodNotAllowed))
	router.GlobalOPTIONS = Preflight()

	router.GET("/", m.public(api.Index))
	router.GET("/health", m.public(api.Health))
	router.GET("/status", m.public(api.Status))
	router.GET("/swagger/*any", m.public(WrapHandler(httpswagger.WrapHandler)))

	api.SetupCatalogRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	return router
}
