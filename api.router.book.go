package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	readers := api.RequireRoles(RoleAdmin, RoleUser, RoleLibrarian)
	editors := api.RequireRoles(RoleAdmin, RoleLibrarian)
	admins := api.RequireRoles(RoleAdmin)

	router.RedirectTrailingSlash = true
	router.POST("/v1/books", m.public(editors(api.CreateBook)))
	router.GET("/v1/books", m.public(readers(api.GetAllBooks)))
	router.GET("/v1/books/:id", m.public(readers(api.GetOneBook)))
	router.PUT("/v1/books/:id", m.public(editors(api.UpdateBook)))
	router.DELETE("/v1/books/:id", m.public(admins(api.DeleteOneBook)))
	return router
}
