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
// @Param        book  body      CreateBookInput  true  "book to create"
// @Success      201   {object}  APIResponse{data=BookDTO}
// @Failure      400   {object}  APIError
// @Failure      401   {object}  APIError
// @Failure      403   {object}  APIError
// @Security     BearerAuth
// @Router       /v1/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input CreateBookInput
	if !api.decodeBody(w, r, "failed to create the book", &input) {
		return
	}

	if err := input.Validate(); err != nil {
		api.sendFailure(w, r, "failed to create the book", err)
		return
	}

	book, err := api.bookService.Add(r.Context(), input)
	if err != nil {
		api.sendFailure(w, r, "failed to create the book", err)
		return
	}
	api.logger.Info("success to create book",
		zap.Int64("book.id", book.ID),
		zap.String("request.id", GetValueFromContext(r.Context(), ContextRequestID)),
	)
	api.sendResponse(w, r, http.StatusCreated, "Book created successfully.", nil, book)
}

// GetAllBooks godoc
// @Summary      List books
// @Description  Filters by title containment and category, sorts by title or author name and paginates.
// @Tags         books
// @Produce      json
// @Param        title         query     string  false  "case-insensitive title filter"
// @Param        categoryId    query     int     false  "category filter"
// @Param        sortBy        query     string  false  "title or author"
// @Param        isDescending  query     bool    false  "sort direction"
// @Param        pageNumber    query     int     false  "page number, starts at 1"
// @Param        pageSize      query     int     false  "page size, up to 100"
// @Success      200  {object}  APIResponse{data=[]BookDTO}
// @Failure      400  {object}  APIError
// @Security     BearerAuth
// @Router       /v1/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, err := ParseBookQuery(r.URL.Query())
	if err != nil {
		api.sendFailure(w, r, "failed to list books", err)
		return
	}

	books, err := api.bookService.List(r.Context(), query)
	if err != nil {
		api.sendFailure(w, r, "failed to list books", err)
		return
	}
	total := len(books)
	api.sendResponse(w, r, http.StatusOK, "Books fetched successfully.", &total, books)
}

// GetOneBook godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "book id"
// @Success      200  {object}  APIResponse{data=BookDTO}
// @Failure      404  {object}  APIError
// @Security     BearerAuth
// @Router       /v1/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := GetIDFromParams(ps)
	if err != nil {
		api.sendFailure(w, r, "failed to get the book", err)
		return
	}

	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		api.sendFailure(w, r, "failed to get the book", err)
		return
	}
	api.sendResponse(w, r, http.StatusOK, "Book fetched successfully.", nil, book)
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Replaces the book fields and its categories. An unknown author keeps the current one.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "book id"
// @Param        book  body      UpdateBookInput  true  "new book content"
// @Success      200   {object}  APIResponse{data=BookDTO}
// @Failure      400   {object}  APIError
// @Failure      404   {object}  APIError
// @Security     BearerAuth
// @Router       /v1/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := GetIDFromParams(ps)
	if err != nil {
		api.sendFailure(w, r, "failed to update the book", err)
		return
	}

	var input UpdateBookInput
	if !api.decodeBody(w, r, "failed to update the book", &input) {
		return
	}

	if err = input.Validate(); err != nil {
		api.sendFailure(w, r, "failed to update the book", err)
		return
	}

	book, err := api.bookService.Update(r.Context(), id, input)
	if err != nil {
		api.sendFailure(w, r, "failed to update the book", err)
		return
	}
	api.logger.Info("success to update book",
		zap.Int64("book.id", id),
		zap.String("request.id", GetValueFromContext(r.Context(), ContextRequestID)),
	)
	api.sendResponse(w, r, http.StatusOK, "Book updated successfully.", nil, book)
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Tags         books
// @Param        id   path  int  true  "book id"
// @Success      204
// @Failure      404  {object}  APIError
// @Security     BearerAuth
// @Router       /v1/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := GetIDFromParams(ps)
	if err != nil {
		api.sendFailure(w, r, "failed to delete the book", err)
		return
	}

	if err = api.bookService.Delete(r.Context(), id); err != nil {
		api.sendFailure(w, r, "failed to delete the book", err)
		return
	}
	api.logger.Info("success to delete book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	if err = WriteNoContent(r.Context(), w); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
