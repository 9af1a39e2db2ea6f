// Package models defines the domain records shared by the page generator, the approval tracker and their stores.
package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalidProductID is returned when a product id cannot be used as a directory name.
var ErrInvalidProductID = errors.New("invalid product id")

var safeIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Product is a catalog entry as maintained by the admin product screens.
type Product struct {
	ID                 string            `json:"id"                            validate:"required,product_id"`
	Name               string            `json:"name"`
	NameKo             string            `json:"nameKo"`
	Description        string            `json:"description"`
	DescriptionKo      string            `json:"descriptionKo"`
	Image              string            `json:"image"`
	GalleryImages      []GalleryImage    `json:"gallery_images_data"`
	Videos             []Video           `json:"videos"`
	Features           []Feature         `json:"features"`
	Documents          []ProductDocument `json:"documents"`
	SpecTable          []SpecRow         `json:"specTable"`
	Cautions           []string          `json:"cautions"`
	Certifications     []Certification   `json:"certifications"`
	Model3D            *Model3D          `json:"model3D,omitempty"`
	AdditionalSections []Section         `json:"additionalSections"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

type GalleryImage struct {
	ID      string `json:"id"`
	Src     string `json:"src"`
	Caption string `json:"caption,omitempty"`
}

type Video struct {
	Src   string `json:"src"`
	Title string `json:"title,omitempty"`
}

type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProductDocument is a downloadable file (catalog, manual, certificate) attached to a product.
type ProductDocument struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	URL      string `json:"url,omitempty"`
	Type     string `json:"type"`
	FileSize string `json:"fileSize,omitempty"`
}

// Link returns the path when present, otherwise the url.
func (d ProductDocument) Link() string {
	if d.Path != "" {
		return d.Path
	}

	return d.URL
}

type SpecRow struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type Certification struct {
	Description string `json:"description"`
}

// Model3D describes the asset rendered in the 3D viewer slot.
type Model3D struct {
	Src    string `json:"src"`
	IOSSrc string `json:"iosSrc,omitempty"`
	Poster string `json:"poster,omitempty"`
	Alt    string `json:"alt,omitempty"`
}

type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LocalizedName prefers the Korean name.
func (p *Product) LocalizedName() string {
	if p.NameKo != "" {
		return p.NameKo
	}

	return p.Name
}

// LocalizedDescription prefers the Korean description.
func (p *Product) LocalizedDescription() string {
	if p.DescriptionKo != "" {
		return p.DescriptionKo
	}

	return p.Description
}

// IsSafeID reports whether id can be used as a single path element.
func IsSafeID(id string) bool {
	return id != "." && id != ".." && safeIDPattern.MatchString(id)
}

// ValidateProductID checks that id is usable both as a lookup key and as a directory name.
func ValidateProductID(id string) error {
	if !IsSafeID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidProductID, id)
	}

	return nil
}
