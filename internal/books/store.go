package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// ErrBookNotFound is returned when no book has the requested id.
var ErrBookNotFound = errors.New("book not found")

// Book is the entity served through the method cache.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id" yaml:"id"`
	Title string `bun:"title,notnull" json:"title" yaml:"title"`
}

// Store persists books with bun.
type Store struct {
	db *bun.DB
}

// NewStore wraps an open bun database.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// OpenSQLite opens a SQLite database with the bun SQLite dialect. An empty dsn
// opens a private in-memory database.
func OpenSQLite(dsn string) (*bun.DB, error) {
	if dsn == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}

	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	sqldb.SetMaxOpenConns(1)

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Migrate creates the books table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Book)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	return nil
}

// Add inserts b and returns its generated id.
func (s *Store) Add(ctx context.Context, b *Book) (int64, error) {
	if b == nil {
		return 0, errors.New("nil book")
	}

	res, err := s.db.NewInsert().Model(b).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	if b.ID == 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("insert book: %w", err)
		}
		b.ID = id
	}

	return b.ID, nil
}

// Find loads the book with id.
func (s *Store) Find(ctx context.Context, id int64) (Book, error) {
	var b Book
	err := s.db.NewSelect().
		Model(&b).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("%w: id %d", ErrBookNotFound, id)
	}
	if err != nil {
		return Book{}, fmt.Errorf("find book %d: %w", id, err)
	}
	return b, nil
}

// UpdateTitle changes the title of book id.
func (s *Store) UpdateTitle(ctx context.Context, id int64, title string) error {
	res, err := s.db.NewUpdate().
		Model((*Book)(nil)).
		Set("title = ?", title).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update book %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update book %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrBookNotFound, id)
	}
	return nil
}
