// Package notify delivers the monitor's notifications: HTML emails rendered
// from templates and Slack webhook alerts.
package notify

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"

	"github.com/thannaske/s3monitor/pkg/models"
)

// Template names shipped with the binary
const (
	StatusTemplate  = "s3_status_email.html"
	WarningTemplate = "s3_warning_email.html"
)

//go:embed templates/*.html
var embedded embed.FS

// Renderer renders HTML email bodies from a template file system
type Renderer struct {
	fsys fs.FS
}

// NewRenderer returns a renderer over dir, or over the embedded templates
// when dir is empty.
func NewRenderer(dir string) *Renderer {
	if dir == "" {
		sub, _ := fs.Sub(embedded, "templates")
		return &Renderer{fsys: sub}
	}
	return &Renderer{fsys: os.DirFS(dir)}
}

// NewRendererFS returns a renderer over an arbitrary file system
func NewRendererFS(fsys fs.FS) *Renderer {
	return &Renderer{fsys: fsys}
}

// Render executes the named template with data
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	raw, err := fs.ReadFile(r.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &models.TemplateNotFoundError{Path: name}
	}
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
