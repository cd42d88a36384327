package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// sqliteDriverName is the sqlite driver with the catalog functions registered
// on every connection. SQLite's own LOWER only folds ASCII letters.
const sqliteDriverName = "sqlite3_catalog"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("ulower", strings.ToLower, true)
		},
	})
	sqlx.BindDriver(sqliteDriverName, sqlx.QUESTION)
}

// Table names of the catalog schema.
const (
	tableAuthors        = "authors"
	tableCategories     = "categories"
	tableBooks          = "books"
	tableBookCategories = "book_categories"
	tableMembers        = "members"
	tableLibraryCards   = "library_cards"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(100) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title VARCHAR(100) NOT NULL,
		synopsis VARCHAR(1000),
		author_id INTEGER NOT NULL REFERENCES authors(id)
	);`,
	`CREATE TABLE IF NOT EXISTS book_categories (
		book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (book_id, category_id)
	);`,
	`CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(100) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS library_cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		card_number VARCHAR(50) NOT NULL,
		member_id INTEGER NOT NULL UNIQUE REFERENCES members(id) ON DELETE CASCADE
	);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS books (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		synopsis VARCHAR(1000),
		author_id BIGINT NOT NULL REFERENCES authors(id)
	);`,
	`CREATE TABLE IF NOT EXISTS book_categories (
		book_id BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (book_id, category_id)
	);`,
	`CREATE TABLE IF NOT EXISTS members (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS library_cards (
		id BIGSERIAL PRIMARY KEY,
		card_number VARCHAR(50) NOT NULL,
		member_id BIGINT NOT NULL UNIQUE REFERENCES members(id) ON DELETE CASCADE
	);`,
}

// sqlStore holds the relational database connection shared
// by the book, member and catalog storages.
type sqlStore struct {
	logger  *zap.Logger
	db      *sqlx.DB
	driver  string
	dialect goqu.DialectWrapper
}

// GetSQLClient opens the configured relational database and checks the connection.
func GetSQLClient(config *DatabaseConfig) (*sqlx.DB, error) {
	driverName := sqliteDriverName
	if config.Driver == DriverPostgres {
		driverName = "pgx"
	}

	if config.Driver == DriverSQLite {
		if path := sqliteFilePath(config.DSN); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database folder: %v", err)
			}
		}
	}

	db, err := sqlx.Open(driverName, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	// test connection.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return db, nil
}

// sqliteFilePath extracts the file path of a sqlite dsn. It
// returns an empty string for in-memory databases.
func sqliteFilePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return ""
	}
	return path
}

// NewSQLStore provides the shared relational store for the given driver.
func NewSQLStore(logger *zap.Logger, db *sqlx.DB, driver string) *sqlStore {
	return &sqlStore{
		logger:  logger,
		db:      db,
		driver:  driver,
		dialect: goqu.Dialect(driver),
	}
}

// Close shuts down the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// Migrate creates the catalog tables if they do not exist yet.
func (s *sqlStore) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}

// withTx runs fn into a single transaction. The transaction is rolled
// back when fn fails and committed otherwise.
func (s *sqlStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			s.logger.Error("storage: failed to rollback transaction", zap.Error(rerr))
		}
		return err
	}
	return tx.Commit()
}

// insertID executes the insert statement and returns the generated id.
func (s *sqlStore) insertID(ctx context.Context, q sqlx.ExtContext, ds *goqu.InsertDataset) (int64, error) {
	var id int64
	if s.driver == DriverPostgres {
		query, args, err := ds.Returning("id").Prepared(true).ToSQL()
		if err != nil {
			return id, err
		}
		err = q.QueryRowxContext(ctx, query, args...).Scan(&id)
		return id, err
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return id, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return id, err
	}
	return res.LastInsertId()
}

// exec builds and runs a statement which returns no rows.
func (s *sqlStore) exec(ctx context.Context, q sqlx.ExtContext, ds interface {
	ToSQL() (string, []interface{}, error)
},
) (int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateAuthor inserts a new author.
func (s *sqlStore) CreateAuthor(ctx context.Context, author Author) (Author, error) {
	id, err := s.insertID(ctx, s.db, s.dialect.Insert(tableAuthors).Rows(goqu.Record{
		"first_name": author.FirstName,
		"last_name":  author.LastName,
	}))
	if err != nil {
		return author, persistenceErr("create author", err)
	}
	author.ID = id
	return author, nil
}

// ListAuthors retrieves all authors ordered by id.
func (s *sqlStore) ListAuthors(ctx context.Context) ([]Author, error) {
	query, args, err := s.dialect.From(tableAuthors).
		Select("id", "first_name", "last_name").
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, persistenceErr("list authors", err)
	}
	authors := []Author{}
	if err = sqlx.SelectContext(ctx, s.db, &authors, query, args...); err != nil {
		return nil, persistenceErr("list authors", err)
	}
	return authors, nil
}

// CreateCategory inserts a new category.
func (s *sqlStore) CreateCategory(ctx context.Context, category Category) (Category, error) {
	id, err := s.insertID(ctx, s.db, s.dialect.Insert(tableCategories).Rows(goqu.Record{
		"name": category.Name,
	}))
	if err != nil {
		return category, persistenceErr("create category", err)
	}
	category.ID = id
	return category, nil
}

// ListCategories retrieves all categories ordered by id.
func (s *sqlStore) ListCategories(ctx context.Context) ([]Category, error) {
	query, args, err := s.dialect.From(tableCategories).
		Select("id", "name").
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, persistenceErr("list categories", err)
	}
	categories := []Category{}
	if err = sqlx.SelectContext(ctx, s.db, &categories, query, args...); err != nil {
		return nil, persistenceErr("list categories", err)
	}
	return categories, nil
}

// containsFold matches rows whose column contains value, ignoring case.
// Postgres LOWER folds unicode already, sqlite gets ulower.
func (s *sqlStore) containsFold(column, value string) exp.LiteralExpression {
	lower := "LOWER"
	if s.driver == DriverSQLite {
		lower = "ulower"
	}
	return goqu.L(lower+`(?) LIKE ? ESCAPE '\'`, goqu.I(column), likeContains(value))
}

// likeContains builds a lower-cased containment pattern with the
// LIKE wildcards escaped.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// uniqueIDs returns ids without duplicates, keeping the first occurrence order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
