package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupMemberRoutes injects member related the api endpoints.
// Members are managed by librarians and admins only.
func (api *APIHandler) SetupMemberRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	staff := api.RequireRoles(RoleAdmin, RoleLibrarian)

	router.RedirectTrailingSlash = true
	router.POST("/v1/members", m.public(staff(api.CreateMember)))
	router.GET("/v1/members", m.public(staff(api.GetAllMembers)))
	router.GET("/v1/members/:id", m.public(staff(api.GetOneMember)))
	router.PUT("/v1/members/:id", m.public(staff(api.UpdateMember)))
	router.DELETE("/v1/members/:id", m.public(staff(api.DeleteOneMember)))
	return router
}
