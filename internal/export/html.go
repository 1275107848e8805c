// Package export fills HTML document templates (letters, contracts,
// handover notes) with entity fields — the non-financial alternate to the
// PDF renderer.
package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kairostudio/backoffice/internal/models"
)

// Context is the data a template may reference: {{.Company.Name}},
// {{.Client.Name}}, {{.Project.Name}}, plus free-form fields.
type Context struct {
	Company models.Company
	Client  models.Client
	Project models.Project
	Fields  map[string]string
}

// Fill parses the stored template content and executes it with the given
// context. Template content is authored per company; parse errors surface
// to the author, not the end client.
func Fill(t models.Template, ctx Context) (string, error) {
	tpl, err := template.New(t.Name).Parse(t.Content)
	if err != nil {
		return "", fmt.Errorf("template %q: %w", t.Name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template %q: %w", t.Name, err)
	}
	return buf.String(), nil
}
