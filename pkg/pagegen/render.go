package pagegen

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/firecms/cms/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// JSX uses single and double braces, so templates use {% %} as delimiters.
var templates = template.Must(
	template.New("pages").
		Delims("{%", "%}").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"js":   jsString,
			"json": jsonValue,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// pageContext is everything the B-type templates may reference.
type pageContext struct {
	ID                 string
	Name               string
	Description        string
	Image              string
	Features           []models.Feature
	Cautions           []string
	Certifications     []models.Certification
	AdditionalSections []models.Section
	SpecTable          []models.SpecRow
	Documents          []models.ProductDocument
	GalleryImages      []models.GalleryImage
	Videos             []models.Video
	Model3D            *models.Model3D
}

func newPageContext(product *models.Product) pageContext {
	return pageContext{
		ID:                 product.ID,
		Name:               product.LocalizedName(),
		Description:        product.LocalizedDescription(),
		Image:              product.Image,
		Features:           nonNil(product.Features),
		Cautions:           nonNil(product.Cautions),
		Certifications:     nonNil(product.Certifications),
		AdditionalSections: nonNil(product.AdditionalSections),
		SpecTable:          nonNil(product.SpecTable),
		Documents:          nonNil(product.Documents),
		GalleryImages:      nonNil(product.GalleryImages),
		Videos:             nonNil(product.Videos),
		Model3D:            product.Model3D,
	}
}

// nonNil keeps the generated constants arrays so the client can call .map on them.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}

func render(name string, ctx pageContext) ([]byte, error) {
	var buf bytes.Buffer

	err := templates.ExecuteTemplate(&buf, name, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

// jsString renders s as a double-quoted JavaScript string literal.
func jsString(s string) (string, error) {
	return jsonValue(s)
}

// jsonValue renders v as a JSON literal, which is also a valid JavaScript expression.
// HTML escaping is left on so "</" and "&" can never terminate surrounding markup.
func jsonValue(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}
