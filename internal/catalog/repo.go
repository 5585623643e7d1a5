package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/models"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Slug      string    `json:"slug"`
	Date      time.Time `json:"date"`
	Lede      string    `json:"lede"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post converts the row to its domain record.
func (r PostRow) Post() models.Post {
	return models.Post{Date: r.Date, Slug: r.Slug, Lede: r.Lede}
}

const maxListLimit = 500

// UpsertPost inserts or replaces a post and its search entry.
func (db *DB) UpsertPost(r PostRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO posts (slug, date, lede, path, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			date       = excluded.date,
			lede       = excluded.lede,
			path       = excluded.path,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, r.Slug, r.Date.Format(models.SlugLayout), r.Lede, r.Path, r.Checksum, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert post: %w", err)
	}

	if err := ftsUpsert(tx, r.Slug, r.Lede); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePost removes a post and its search entry.
func (db *DB) DeletePost(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	if _, err := tx.Exec(`DELETE FROM posts WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("catalog: delete post: %w", err)
	}
	return tx.Commit()
}

// GetPost returns one post, or apperr.ErrNotFound.
func (db *DB) GetPost(slug string) (*PostRow, error) {
	row := db.conn.QueryRow(`
		SELECT slug, date, lede, path, checksum, updated_at
		FROM posts WHERE slug = ?
	`, slug)
	r, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get post: %w", err)
	}
	return r, nil
}

// ListPosts returns a page of posts newest first and the total count.
func (db *DB) ListPosts(limit, offset int) ([]PostRow, int, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count posts: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT slug, date, lede, path, checksum, updated_at
		FROM posts
		ORDER BY date DESC, slug DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list posts: %w", err)
	}
	defer rows.Close()

	out, err := collectRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllChecksums returns slug to checksum for every cataloged post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*PostRow, error) {
	var (
		r    PostRow
		date string
	)
	if err := s.Scan(&r.Slug, &date, &r.Lede, &r.Path, &r.Checksum, &r.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := time.Parse(models.SlugLayout, date)
	if err != nil {
		return nil, fmt.Errorf("catalog: bad date %q for %s: %w", date, r.Slug, err)
	}
	r.Date = d
	return &r, nil
}

func collectRows(rows *sql.Rows) ([]PostRow, error) {
	out := []PostRow{}
	for rows.Next() {
		r, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
