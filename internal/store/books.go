package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type Book struct {
	BookID   int     `json:"book_id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

// GetBookByID returns nil when the book does not exist.
func GetBookByID(ctx context.Context, q Querier, id int) (*Book, error) {
	var b Book
	err := q.QueryRow(ctx, `
		SELECT book_id, title, COALESCE(author, ''), COALESCE(category, ''),
			COALESCE(price, 0), COALESCE(stock, 0)
		FROM books
		WHERE book_id = $1`, id,
	).Scan(&b.BookID, &b.Title, &b.Author, &b.Category, &b.Price, &b.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Catalog adapts title lookups for the conversation agent. FindByTitle
// returns the best match or nil.
type Catalog struct {
	DB Querier
}

func (c *Catalog) FindByTitle(ctx context.Context, title string) (*Book, error) {
	books, err := SearchBooksByTitle(ctx, c.DB, title, 1)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, nil
	}
	return &books[0], nil
}

// SearchBooksByTitle does a case-insensitive substring match, best match
// first by exactness then title.
func SearchBooksByTitle(ctx context.Context, q Querier, title string, limit int) ([]Book, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := q.Query(ctx, `
		SELECT book_id, title, COALESCE(author, ''), COALESCE(category, ''),
			COALESCE(price, 0), COALESCE(stock, 0)
		FROM books
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY (LOWER(title) = LOWER($1)) DESC, title
		LIMIT $2`, title, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.BookID, &b.Title, &b.Author, &b.Category, &b.Price, &b.Stock); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
