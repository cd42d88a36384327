package main

import (
	"context"
	"strings"
)

// LibraryCard is the card owned by a member.
type LibraryCard struct {
	ID         int64  `json:"id"`
	CardNumber string `json:"cardNumber"`
	MemberID   int64  `json:"memberId"`
}

// Member represents a library member. A member always
// owns exactly one library card once created.
type Member struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	LibraryCard LibraryCard `json:"libraryCard"`
}

// MemberDTO is the outward projection of a member.
type MemberDTO struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	LibraryCard LibraryCard `json:"libraryCard"`
}

// NewMemberDTO builds the projection of a member.
func NewMemberDTO(m Member) MemberDTO {
	return MemberDTO{ID: m.ID, Name: m.Name, LibraryCard: m.LibraryCard}
}

// CreateMemberInput is the payload of a member creation request.
type CreateMemberInput struct {
	Name       string `json:"name"`
	CardNumber string `json:"cardNumber"`
}

// UpdateMemberInput is the payload of a member update request.
type UpdateMemberInput struct {
	Name       string `json:"name"`
	CardNumber string `json:"cardNumber"`
}

// MemberQuery holds the filtering and paging parameters of a members listing.
type MemberQuery struct {
	Name       string `json:"name"`
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
}

// NewMemberQuery returns a query with default paging.
func NewMemberQuery() MemberQuery {
	return MemberQuery{PageNumber: DefaultPageNumber, PageSize: DefaultPageSize}
}

// Normalize returns a copy of the query with paging clamped to valid values.
func (q MemberQuery) Normalize() MemberQuery {
	q.Name = strings.TrimSpace(q.Name)
	q.PageNumber, q.PageSize = normalizePaging(q.PageNumber, q.PageSize)
	return q
}

// Offset returns the number of records to skip for the requested page.
func (q MemberQuery) Offset() int {
	return (q.PageNumber - 1) * q.PageSize
}

// MemberStorage defines possible operations on member entity.
type MemberStorage interface {
	Create(ctx context.Context, name, cardNumber string) (Member, error)
	List(ctx context.Context, query MemberQuery) ([]Member, error)
	GetOne(ctx context.Context, id int64) (Member, error)
	Update(ctx context.Context, id int64, name, cardNumber string) (Member, error)
	Delete(ctx context.Context, id int64) (Member, error)
}
