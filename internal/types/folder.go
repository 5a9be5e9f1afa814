// Package types provides type definitions for structured data used throughout the talent-pool system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Folder is a named, coloured grouping of candidates.
// Count is derived from candidate membership each time a folder is read.
type Folder struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	IsDefault   bool      `json:"is_default"`
	Count       int       `json:"count"`
	CreatedAt   time.Time `json:"created_at"`
}

// FolderEdit carries the fields a caller wants to change on a folder.
type FolderEdit struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	IsDefault   *bool   `json:"is_default,omitempty"`
}

// Empty reports whether the edit changes nothing.
func (e FolderEdit) Empty() bool {
	return e.Name == nil && e.Description == nil && e.Color == nil && e.IsDefault == nil
}
