package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/internal/utils"
)

// Template names shipped with the package.
const (
	SearchTerms   = "search_terms"
	ImageAnalysis = "image_analysis"
	Outfit        = "outfit_suggestion"
	OutfitImage   = "outfit_image"
)

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

// maxDescription bounds a converted item description inside a prompt.
const maxDescription = 600

// Builder renders named prompt templates. It is safe for concurrent use.
type Builder struct {
	templates *template.Template
}

// view is the value every template is executed with.
type view struct {
	In       any
	Schema   string
	Required []string
}

// New returns a Builder with the embedded templates.
func New() (*Builder, error) {
	return NewFromFS(defaultTemplates, "templates/*.tmpl")
}

// NewFromFS parses templates matching pattern in fsys. Each template is named
// after its file name without the .tmpl extension, so a directory can
// override any of the built-in prompts.
func NewFromFS(fsys fs.FS, pattern string) (*Builder, error) {
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing prompt templates: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no prompt templates match %q", pattern)
	}

	root := template.New("prompts").Funcs(funcs())
	for _, path := range paths {
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading prompt template %s: %w", path, err)
		}

		name := strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".tmpl")
		if _, err := root.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parsing prompt template %s: %w", path, err)
		}
	}

	return &Builder{templates: root}, nil
}

// Has reports whether a template called name is loaded.
func (b *Builder) Has(name string) bool {
	return b.templates.Lookup(name) != nil
}

// Render executes the named template with data and the schema of shape. A
// nil shape renders the schema of a bare object.
func (b *Builder) Render(name string, data any, shape *extract.Shape) (string, error) {
	tmpl := b.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, view{
		In:       data,
		Schema:   shape.SchemaJSON(),
		Required: shape.Required(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt %q: %w", name, err)
	}

	return strings.TrimSpace(buf.String()) + "\n", nil
}

// Markdown converts an HTML fragment to Markdown. Plain text passes through
// unchanged. If conversion fails the input is returned trimmed.
func Markdown(html string) string {
	html = strings.TrimSpace(html)
	if html == "" || !strings.Contains(html, "<") {
		return html
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(markdown)
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": func(s string) string {
			return utils.TruncateString(Markdown(s), maxDescription)
		},
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"truncate": func(n int, s string) string {
			return utils.TruncateString(s, n)
		},
		"quote": func(items []string) string {
			quoted := make([]string, len(items))
			for i, item := range items {
				quoted[i] = fmt.Sprintf("%q", item)
			}
			return strings.Join(quoted, ", ")
		},
	}
}
