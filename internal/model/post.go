package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MinPostContentLength is the minimum number of characters a post body needs.
	MinPostContentLength = 100
	// DefaultPostAuthor is used when a post is created without an author.
	DefaultPostAuthor = "Admin"
)

// Post is a blog article.
type Post struct {
	Meta     `bson:",inline"`
	Title    string   `json:"title" bson:"title"`
	Content  string   `json:"content" bson:"content"`
	Author   string   `json:"author" bson:"author"`
	Tags     []string `json:"tags" bson:"tags"`
	ImageURL string   `json:"imageUrl,omitempty" bson:"imageUrl"`
}

func (p *Post) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Author = strings.TrimSpace(p.Author)
	if p.Author == "" {
		p.Author = DefaultPostAuthor
	}
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	p.Tags = tags
}

func (p *Post) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "title", p.Title)
	if utf8.RuneCountInString(p.Content) < MinPostContentLength {
		errs = append(errs, FieldError{
			Field:   "content",
			Message: fmt.Sprintf("content must be at least %d characters", MinPostContentLength),
		})
	}
	return errs
}
