package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fields(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestPost_NormalizeDefaults(t *testing.T) {
	p := &Post{Title: "  Hi  ", Author: "   ", Tags: []string{" go ", "", "echo"}}
	p.Normalize()

	assert.Equal(t, "Hi", p.Title)
	assert.Equal(t, DefaultPostAuthor, p.Author)
	assert.Equal(t, []string{"go", "echo"}, p.Tags)

	empty := &Post{}
	empty.Normalize()
	assert.NotNil(t, empty.Tags)
}

func TestPost_Validate(t *testing.T) {
	long := strings.Repeat("ñ", MinPostContentLength)

	assert.Empty(t, (&Post{Title: "T", Content: long}).Validate())
	assert.Equal(t, []string{"content"}, fields((&Post{Title: "T", Content: long[:len(long)-2]}).Validate()))
	assert.Equal(t, []string{"title"}, fields((&Post{Title: " ", Content: long}).Validate()))
	assert.Equal(t, []string{"title", "content"}, fields((&Post{}).Validate()))
}

func TestEducation_Validate(t *testing.T) {
	assert.Equal(t, []string{"institution", "degree"}, fields((&Education{}).Validate()))
	assert.Empty(t, (&Education{Institution: "UNAM", Degree: "BSc"}).Validate())
}

func TestExperience_Validate(t *testing.T) {
	assert.Equal(t, []string{"company", "position", "startDate", "description"}, fields((&Experience{}).Validate()))

	e := &Experience{Company: " Acme ", Position: "Dev", StartDate: "2020", Description: "x"}
	e.Normalize()
	assert.Equal(t, "Acme", e.Company)
	assert.Empty(t, e.Validate())
}

func TestNormalize_TrimsDescription(t *testing.T) {
	ed := &Education{Description: "  Thesis on compilers \n"}
	ed.Normalize()
	assert.Equal(t, "Thesis on compilers", ed.Description)

	ex := &Experience{Company: "Acme", Position: "Dev", StartDate: "2020", Description: " \t "}
	ex.Normalize()
	assert.Empty(t, ex.Description)
	assert.Equal(t, []string{"description"}, fields(ex.Validate()))
}
