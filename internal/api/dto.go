package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/render"
)

// ToggleRequest is the body of POST /catalog/toggle.
type ToggleRequest struct {
	Root string `json:"root"`
}

func (r ToggleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Root, validation.Required, validation.By(directoryRoot)),
	)
}

// ToggleResponse reports the directory state after a toggle.
type ToggleResponse struct {
	Root     string `json:"root"`
	Expanded bool   `json:"expanded"`
}

// RevealRequest is the body of POST /catalog/reveal.
type RevealRequest struct {
	Path string `json:"path"`
}

func (r RevealRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// RevealResponse lists the directories the reveal expanded.
type RevealResponse struct {
	Path     string   `json:"path"`
	Expanded []string `json:"expanded"`
}

// FilterRequest is the body of PUT /catalog/filter. Patterns are compiled
// by the service; an invalid one is reported as 400.
type FilterRequest struct {
	Includes []string `json:"includes"`
	Excludes []string `json:"excludes"`
}

func (r FilterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Includes, validation.Each(validation.Required)),
		validation.Field(&r.Excludes, validation.Each(validation.Required)),
	)
}

// FileListResponse is the body of GET /catalog/files.
type FileListResponse struct {
	Files []models.FileEntry `json:"files"`
	Total int                `json:"total"`
}

// OptionsResponse is the body of GET /reference/options.
type OptionsResponse struct {
	Options []render.Option `json:"options"`
}

func directoryRoot(v any) error {
	s, _ := v.(string)
	if !strings.HasPrefix(s, "/") || !strings.HasSuffix(s, "/") {
		return validation.NewError("validation_directory_root", "must start and end with /")
	}
	return nil
}
