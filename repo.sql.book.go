package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type bookRow struct {
	ID        int64          `db:"id"`
	Title     string         `db:"title"`
	Synopsis  sql.NullString `db:"synopsis"`
	AuthorID  int64          `db:"author_id"`
	FirstName string         `db:"first_name"`
	LastName  string         `db:"last_name"`
}

func (r bookRow) toBook() Book {
	return Book{
		ID:       r.ID,
		Title:    r.Title,
		Synopsis: stringPtr(r.Synopsis),
		AuthorID: r.AuthorID,
		Author: Author{
			ID:        r.AuthorID,
			FirstName: r.FirstName,
			LastName:  r.LastName,
		},
		Categories: []Category{},
	}
}

type bookCategoryRow struct {
	BookID int64  `db:"book_id"`
	ID     int64  `db:"id"`
	Name   string `db:"name"`
}

type sqlBookStorage struct {
	*sqlStore
}

// NewSQLBookStorage provides an instance of relational database based book storage.
func NewSQLBookStorage(store *sqlStore) BookStorage {
	return &sqlBookStorage{sqlStore: store}
}

// booksDataset selects books joined with their author.
func (s *sqlBookStorage) booksDataset() *goqu.SelectDataset {
	return s.dialect.From(goqu.T(tableBooks).As("b")).
		InnerJoin(goqu.T(tableAuthors).As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id")))).
		Select(
			goqu.I("b.id").As("id"),
			goqu.I("b.title").As("title"),
			goqu.I("b.synopsis").As("synopsis"),
			goqu.I("b.author_id").As("author_id"),
			goqu.I("a.first_name").As("first_name"),
			goqu.I("a.last_name").As("last_name"),
		)
}

// Create inserts a book and links it to the given categories. Unknown
// category ids are ignored. It fails with ErrAuthorNotFound when the
// author does not exist.
func (s *sqlBookStorage) Create(ctx context.Context, book Book, categoryIDs []int64) (Book, error) {
	var created Book
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		exists, err := s.authorExists(ctx, tx, book.AuthorID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrAuthorNotFound
		}

		id, err := s.insertID(ctx, tx, s.dialect.Insert(tableBooks).Rows(goqu.Record{
			"title":     book.Title,
			"synopsis":  nullString(book.Synopsis),
			"author_id": book.AuthorID,
		}))
		if err != nil {
			return err
		}

		known, err := s.existingCategoryIDs(ctx, tx, uniqueIDs(categoryIDs))
		if err != nil {
			return err
		}
		if err = s.linkCategories(ctx, tx, id, known); err != nil {
			return err
		}

		created, err = s.getBook(ctx, tx, id)
		return err
	})
	return created, persistenceErr("create book", err)
}

// List retrieves the page of books matching the query. Results are
// ordered by the requested key with the book id as tie-breaker.
func (s *sqlBookStorage) List(ctx context.Context, query BookQuery) ([]Book, error) {
	query = query.Normalize()
	ds := s.booksDataset()

	if query.Title != "" {
		ds = ds.Where(s.containsFold("b.title", query.Title))
	}

	if query.CategoryID != nil {
		ds = ds.Where(goqu.I("b.id").In(
			s.dialect.From(tableBookCategories).
				Select("book_id").
				Where(goqu.C("category_id").Eq(*query.CategoryID)),
		))
	}

	switch query.SortBy {
	case SortByTitle:
		if query.IsDescending {
			ds = ds.Order(goqu.I("b.title").Desc(), goqu.I("b.id").Asc())
		} else {
			ds = ds.Order(goqu.I("b.title").Asc(), goqu.I("b.id").Asc())
		}
	case SortByAuthor:
		fullName := goqu.L(`? || ' ' || ?`, goqu.I("a.first_name"), goqu.I("a.last_name"))
		if query.IsDescending {
			ds = ds.Order(fullName.Desc(), goqu.I("b.id").Asc())
		} else {
			ds = ds.Order(fullName.Asc(), goqu.I("b.id").Asc())
		}
	default:
		ds = ds.Order(goqu.I("b.id").Asc())
	}

	sqlQuery, args, err := ds.
		Limit(uint(query.PageSize)).
		Offset(uint(query.Offset())).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, persistenceErr("list books", err)
	}
	s.logger.Debug("storage: listing books", zap.String("sql", sqlQuery), zap.Int("args", len(args)))

	var rows []bookRow
	if err = sqlx.SelectContext(ctx, s.db, &rows, sqlQuery, args...); err != nil {
		return nil, persistenceErr("list books", err)
	}

	books := make([]Book, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		books = append(books, r.toBook())
		ids = append(ids, r.ID)
	}

	categories, err := s.loadCategories(ctx, s.db, ids)
	if err != nil {
		return nil, persistenceErr("list books", err)
	}
	for i := range books {
		if c, ok := categories[books[i].ID]; ok {
			books[i].Categories = c
		}
	}
	return books, nil
}

// GetOne retrieves a book with its author and categories.
func (s *sqlBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	book, err := s.getBook(ctx, s.db, id)
	return book, persistenceErr("get book", err)
}

// Update replaces the book scalar fields and applies the difference between
// the current and the requested categories. An unknown author leaves the
// current author in place and unknown category ids are ignored.
func (s *sqlBookStorage) Update(ctx context.Context, id int64, input UpdateBookInput) (Book, error) {
	var updated Book
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.getBook(ctx, tx, id)
		if err != nil {
			return err
		}

		authorID := current.AuthorID
		if input.AuthorID != current.AuthorID {
			exists, err := s.authorExists(ctx, tx, input.AuthorID)
			if err != nil {
				return err
			}
			if exists {
				authorID = input.AuthorID
			}
		}

		if _, err = s.exec(ctx, tx, s.dialect.Update(tableBooks).Set(goqu.Record{
			"title":     input.Title,
			"synopsis":  nullString(input.Synopsis),
			"author_id": authorID,
		}).Where(goqu.C("id").Eq(id)).Prepared(true)); err != nil {
			return err
		}

		requested := uniqueIDs(input.CategoryIDs)
		wanted := make(map[int64]struct{}, len(requested))
		for _, cid := range requested {
			wanted[cid] = struct{}{}
		}
		linked := make(map[int64]struct{}, len(current.Categories))
		var toRemove []int64
		for _, cid := range current.CategoryIDs() {
			linked[cid] = struct{}{}
			if _, ok := wanted[cid]; !ok {
				toRemove = append(toRemove, cid)
			}
		}
		var candidates []int64
		for _, cid := range requested {
			if _, ok := linked[cid]; !ok {
				candidates = append(candidates, cid)
			}
		}

		if len(toRemove) > 0 {
			if _, err = s.exec(ctx, tx, s.dialect.Delete(tableBookCategories).Where(
				goqu.C("book_id").Eq(id),
				goqu.C("category_id").In(toRemove),
			).Prepared(true)); err != nil {
				return err
			}
		}

		toAdd, err := s.existingCategoryIDs(ctx, tx, candidates)
		if err != nil {
			return err
		}
		if err = s.linkCategories(ctx, tx, id, toAdd); err != nil {
			return err
		}

		updated, err = s.getBook(ctx, tx, id)
		return err
	})
	return updated, persistenceErr("update book", err)
}

// Delete removes the book and its category links. It returns the deleted book.
func (s *sqlBookStorage) Delete(ctx context.Context, id int64) (Book, error) {
	var deleted Book
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		deleted, err = s.getBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err = s.exec(ctx, tx, s.dialect.Delete(tableBookCategories).
			Where(goqu.C("book_id").Eq(id)).Prepared(true)); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, s.dialect.Delete(tableBooks).
			Where(goqu.C("id").Eq(id)).Prepared(true))
		return err
	})
	return deleted, persistenceErr("delete book", err)
}

func (s *sqlBookStorage) getBook(ctx context.Context, q sqlx.ExtContext, id int64) (Book, error) {
	query, args, err := s.booksDataset().Where(goqu.I("b.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return Book{}, err
	}

	var row bookRow
	if err = sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrBookNotFound
		}
		return Book{}, err
	}

	book := row.toBook()
	categories, err := s.loadCategories(ctx, q, []int64{id})
	if err != nil {
		return Book{}, err
	}
	if c, ok := categories[id]; ok {
		book.Categories = c
	}
	return book, nil
}

// loadCategories returns the categories of each given book ordered by category id.
func (s *sqlBookStorage) loadCategories(ctx context.Context, q sqlx.ExtContext, bookIDs []int64) (map[int64][]Category, error) {
	out := make(map[int64][]Category, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}

	query, args, err := s.dialect.From(goqu.T(tableBookCategories).As("bc")).
		InnerJoin(goqu.T(tableCategories).As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("bc.category_id")))).
		Select(
			goqu.I("bc.book_id").As("book_id"),
			goqu.I("c.id").As("id"),
			goqu.I("c.name").As("name"),
		).
		Where(goqu.I("bc.book_id").In(bookIDs)).
		Order(goqu.I("bc.book_id").Asc(), goqu.I("c.id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []bookCategoryRow
	if err = sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.BookID] = append(out[r.BookID], Category{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *sqlBookStorage) authorExists(ctx context.Context, q sqlx.ExtContext, id int64) (bool, error) {
	query, args, err := s.dialect.From(tableAuthors).
		Select(goqu.COUNT("*")).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}
	var count int64
	if err = sqlx.GetContext(ctx, q, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

// existingCategoryIDs filters ids down to the categories which exist.
func (s *sqlBookStorage) existingCategoryIDs(ctx context.Context, q sqlx.ExtContext, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := s.dialect.From(tableCategories).
		Select("id").
		Where(goqu.C("id").In(ids)).
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var known []int64
	if err = sqlx.SelectContext(ctx, q, &known, query, args...); err != nil {
		return nil, err
	}
	return known, nil
}

func (s *sqlBookStorage) linkCategories(ctx context.Context, q sqlx.ExtContext, bookID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(categoryIDs))
	for _, cid := range categoryIDs {
		rows = append(rows, goqu.Record{"book_id": bookID, "category_id": cid})
	}
	_, err := s.exec(ctx, q, s.dialect.Insert(tableBookCategories).Rows(rows...).Prepared(true))
	return err
}
