package api

import (
	"github.com/starford/ansuz/internal/instructionservice"
	"github.com/starford/ansuz/internal/models"
)

// InstructionDetail is the full record response type (aliased from the
// domain layer).
type InstructionDetail = instructionservice.Detail

// InstructionListItem is a lightweight item in a list response (aliased
// from the domain layer).
type InstructionListItem = instructionservice.ListItem

// InstructionPage wraps one cumulative page of filtered results.
type InstructionPage = instructionservice.Page

// TagListResponse wraps the ordered tag counts.
type TagListResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// CategoryListResponse wraps the category groups.
type CategoryListResponse struct {
	Categories []instructionservice.CategoryGroup `json:"categories" validate:"required"`
}

// FavoriteToggleResponse is returned after toggling a favorite.
type FavoriteToggleResponse struct {
	Filename string `json:"filename" example:"go-style.md" validate:"required"`
	Favorite bool   `json:"favorite" example:"true" validate:"required"`
}

// SelectResponse is returned after recording a selection.
type SelectResponse struct {
	Filename string `json:"filename" example:"go-style.md" validate:"required"`
	Count    int    `json:"count" example:"7" validate:"required"`
}

// ToolUseResponse is returned after recording a tool invocation.
type ToolUseResponse struct {
	Name  string `json:"name" example:"ChatGPT" validate:"required"`
	Count int    `json:"count" example:"4" validate:"required"`
}

// ToolPickResponse carries the recommended tool.
type ToolPickResponse struct {
	Name string `json:"name" example:"Claude" validate:"required"`
}

// PreferenceResponse carries one preference key/value pair.
type PreferenceResponse struct {
	Key   string `json:"key" example:"dark_mode" validate:"required"`
	Value string `json:"value" example:"auto" validate:"required"`
}

// PreferenceRequest is the request body for setting a preference.
type PreferenceRequest struct {
	Value string `json:"value" example:"dark" validate:"required"`
}

// ShareResponse carries the canonical share URL for a filter state.
type ShareResponse struct {
	Query string `json:"query" example:"tags=go,backend&category=backend"`
}
