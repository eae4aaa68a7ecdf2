package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// Name identifies a prompt template.
type Name string

const (
	Summary Name = "summary"
	Notes   Name = "notes"
	MCQ     Name = "mcq"
	Fillups Name = "fillups"
	Chat    Name = "chat"
)

// Params fills a template. Each template reads only the fields it needs.
type Params struct {
	Context    string
	PagesCount int
	Difficulty string
	Num        int
	Question   string
}

var templates = template.Must(template.New("prompts").Option("missingkey=error").ParseFS(templatesFS, "templates/*.tmpl"))

// Render fills the named template. Context and question text is inserted
// verbatim.
func Render(name Name, p Params) (string, error) {
	t := templates.Lookup(string(name) + ".tmpl")
	if t == nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
