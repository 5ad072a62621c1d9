package models

import "time"

// PostAuthor is the author reference resolved at read time. Only the
// username is exposed; resolution is best-effort and a missing account
// leaves the field nil.
type PostAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Post is a blog post. AuthorID references an Account id but referential
// integrity is not enforced by this system; it is always serialized so write
// responses carry the author reference even before the join resolves Author.
// Cover is the public URL returned by the media host. Timestamps are
// maintained by the store layer.
type Post struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Summary   string      `json:"summary"`
	Content   string      `json:"content"`
	Cover     string      `json:"cover"`
	AuthorID  string      `json:"authorId"`
	Author    *PostAuthor `json:"author"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
