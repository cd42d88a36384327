package main

import (
	"context"
	"math"
	"strings"
)

// Book query defaults and bounds.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
	MaxPageSize       = 100

	SortByTitle  = "title"
	SortByAuthor = "author"
)

// Author represents a book author. Books reference it by id only.
type Author struct {
	ID        int64  `json:"id" db:"id" yaml:"id"`
	FirstName string `json:"firstName" db:"first_name" yaml:"first_name"`
	LastName  string `json:"lastName" db:"last_name" yaml:"last_name"`
}

// FullName returns the author name the way it is displayed and sorted.
func (a Author) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Category represents a book category.
type Category struct {
	ID   int64  `json:"id" db:"id" yaml:"id"`
	Name string `json:"name" db:"name" yaml:"name"`
}

// BookCategory is the join entity between a book and a category.
// The pair of foreign keys is its identity.
type BookCategory struct {
	BookID     int64 `db:"book_id"`
	CategoryID int64 `db:"category_id"`
}

// Book represents a book entity. Author and Categories are resolved
// by the storage on reads from AuthorID and the book categories links.
type Book struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Synopsis   *string    `json:"synopsis,omitempty"`
	AuthorID   int64      `json:"authorId"`
	Author     Author     `json:"author"`
	Categories []Category `json:"categories"`
}

// CategoryIDs returns the ids of the categories attached to the book.
func (b Book) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(b.Categories))
	for _, c := range b.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// BookDTO is the outward projection of a book. This is
// the value served to clients and stored into the cache.
type BookDTO struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Synopsis   *string  `json:"synopsis,omitempty"`
	AuthorID   int64    `json:"authorId"`
	AuthorName string   `json:"authorName"`
	Categories []string `json:"categories"`
}

// NewBookDTO builds the projection of a book.
func NewBookDTO(b Book) BookDTO {
	categories := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		categories = append(categories, c.Name)
	}
	return BookDTO{
		ID:         b.ID,
		Title:      b.Title,
		Synopsis:   b.Synopsis,
		AuthorID:   b.AuthorID,
		AuthorName: b.Author.FullName(),
		Categories: categories,
	}
}

// CreateBookInput is the payload of a book creation request.
type CreateBookInput struct {
	Title       string  `json:"title"`
	Synopsis    *string `json:"synopsis"`
	AuthorID    int64   `json:"authorId"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// UpdateBookInput is the payload of a book update request.
type UpdateBookInput struct {
	Title       string  `json:"title"`
	Synopsis    *string `json:"synopsis"`
	AuthorID    int64   `json:"authorId"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// BookQuery holds the filtering, sorting and paging parameters of a
// books listing. Its JSON form is used to derive the cache key so the
// fields order and tags must stay stable.
type BookQuery struct {
	Title        string `json:"title"`
	CategoryID   *int64 `json:"categoryId"`
	SortBy       string `json:"sortBy"`
	IsDescending bool   `json:"isDescending"`
	PageNumber   int    `json:"pageNumber"`
	PageSize     int    `json:"pageSize"`
}

// NewBookQuery returns a query with default paging.
func NewBookQuery() BookQuery {
	return BookQuery{PageNumber: DefaultPageNumber, PageSize: DefaultPageSize}
}

// Normalize returns a copy of the query with paging clamped to valid
// values and the sort key lower-cased.
func (q BookQuery) Normalize() BookQuery {
	q.Title = strings.TrimSpace(q.Title)
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	q.PageNumber, q.PageSize = normalizePaging(q.PageNumber, q.PageSize)
	return q
}

// Offset returns the number of records to skip for the requested page.
func (q BookQuery) Offset() int {
	return (q.PageNumber - 1) * q.PageSize
}

func normalizePaging(number, size int) (int, int) {
	if number < 1 {
		number = DefaultPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	// keeps (number-1)*size within int so a far page is just empty.
	if number > math.MaxInt/size {
		number = math.MaxInt / size
	}
	return number, size
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Create(ctx context.Context, book Book, categoryIDs []int64) (Book, error)
	List(ctx context.Context, query BookQuery) ([]Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	Update(ctx context.Context, id int64, input UpdateBookInput) (Book, error)
	Delete(ctx context.Context, id int64) (Book, error)
}

// CatalogStorage defines operations on the reference entities books point to.
type CatalogStorage interface {
	CreateAuthor(ctx context.Context, author Author) (Author, error)
	ListAuthors(ctx context.Context) ([]Author, error)
	CreateCategory(ctx context.Context, category Category) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}
