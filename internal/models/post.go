// Package models defines the domain types for dailybrief.
package models

import "time"

// SlugLayout is the date layout used for post identifiers and file names.
const SlugLayout = "2006-01-02"

// Post is one published briefing as listed in the index.
type Post struct {
	Date time.Time `json:"date"`
	Slug string    `json:"slug"`
	Lede string    `json:"lede"`
}

// NewPost builds a Post for date with the slug derived from it.
func NewPost(date time.Time, lede string) Post {
	return Post{Date: date, Slug: date.Format(SlugLayout), Lede: lede}
}

// FileName returns the post's HTML file name.
func (p Post) FileName() string {
	return p.Slug + ".html"
}

// PostMetadata is a lightweight representation of a rendered post file on disk.
type PostMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
