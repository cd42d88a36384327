package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// CreateMember godoc
// @Summary      Create a member with its library card
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        member  body      CreateMemberInput  true  "member to create"
// @Success      201     {object}  APIResponse{data=MemberDTO}
// @Failure      400     {object}  APIError
// @Security     BearerAuth
// @Router       /v1/members [post]
func (api *APIHandler) CreateMember(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input CreateMemberInput
	if !api.decodeBody(w, r, "failed to create the member", &input) {
		return
	}

	if err := input.Validate(); err != nil {
		api.sendFailure(w, r, "failed to create the member", err)
		return
	}

	member, err := api.memberService.Add(r.Context(), input)
	if err != nil {
		api.sendFailure(w, r, "failed to create the member", err)
		return
	}
	api.logger.Info("success to create member",
		zap.Int64("member.id", member.ID),
		zap.String("request.id", GetValueFromContext(r.Context(), ContextRequestID)),
	)
	api.sendResponse(w, r, http.StatusCreated, "Member created successfully.", nil, member)
}

// GetAllMembers godoc
// @Summary      List members
// @Tags         members
// @Produce      json
// @Param        name        query     string  false  "case-insensitive name filter"
// @Param        pageNumber  query     int     false  "page number, starts at 1"
// @Param        pageSize    query     int     false  "page size, up to 100"
// @Success      200  {object}  APIResponse{data=[]MemberDTO}
// @Security     BearerAuth
// @Router       /v1/members [get]
func (api *APIHandler) GetAllMembers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, err := ParseMemberQuery(r.URL.Query())
	if err != nil {
		api.sendFailure(w, r, "failed to list members", err)
		return
	}

	members, err := api.memberService.List(r.Context(), query)
	if err != nil {
		api.sendFailure(w, r, "failed to list members", err)
		return
	}
	total := len(members)
	api.sendResponse(w, r, http.StatusOK, "Members fetched successfully.", &total, members)
}

// GetOneMember godoc
// @Summary      Get a member
// @Tags         members
// @Produce      json
// @Param        id   path      int  true  "member id"
// @Success      200  {object}  APIResponse{data=MemberDTO}
// @Failure      404  {object}  APIError
// @Security     BearerAuth
// @Router       /v1/members/{id} [get]
func (api *APIHandler) GetOneMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := GetIDFromParams(ps)
	if err != nil {
		api.sendFailure(w, r, "failed to get the member", err)
		return
	}

	member, err := api.memberService.GetOne(r.Context(), id)
	if err != nil {
		api.sendFailure(w, r, "failed to get the member", err)
		return
	}
	api.sendResponse(w, r, http.StatusOK, "Member fetched successfully.", nil, member)
}

// UpdateMember godoc
// @Summary      Update a member name and card number
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        id      path      int                true  "member id"
// @Param        member  body      UpdateMemberInput  true  "new member content"
// @Success      200     {object}  APIResponse{data=MemberDTO}
// @Failure      400     {object}  APIError
// @Failure      404     {object}  APIError
// @Security     BearerAuth
// @Router       /v1/members/{id} [put]
func (api *APIHandler) UpdateMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := GetIDFromParams(ps)
	if err != nil {
		api.sendFailure(w, r, "failed to update the member", err)
		return
	}

	var input UpdateMemberInput
	if !api.decodeBody(w, r, "failed to update the member", &input) {
		return
	}

	if err = input.Validate(); err != nil {
		api.sendFailure(w, r, "failed to update the member", err)
		return
	}

	member, err := api.memberService.Update(r.Context(), id, input)
	if err != nil {
		api.sendFailure(w, r, "failed to update the member", err)
		return
	}
	api.logger.Info("success to update member",
		zap.Int64("member.id", id),
		zap.String("request.id", GetValueFromContext(r.Context(), ContextRequestID)),
	)
	api.sendResponse(w, r, http.StatusOK, "Member updated successfully.", nil, member)
}

// DeleteOneMember godoc
// @Summary      Delete a member and its library card
// @Tags         members
// @Param        id   path  int  true  "member id"
// @Success      204
// @Failure      404  {object}  APIError
// @Security     BearerAuth
// @Router       /v1/members/{id} [delete]
func (api *APIHandler) DeleteOneMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := GetIDFromParams(ps)
	if err != nil {
		api.sendFailure(w, r, "failed to delete the member", err)
		return
	}

	if err = api.memberService.Delete(r.Context(), id); err != nil {
		api.sendFailure(w, r, "failed to delete the member", err)
		return
	}
	api.logger.Info("success to delete member", zap.Int64("member.id", id), zap.String("request.id", requestID))
	if err = WriteNoContent(r.Context(), w); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
