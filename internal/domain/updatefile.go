// Package domain contains pure business types without external dependencies.
package domain

import "time"

// NewFileRecord is the input for creating a file record. Identity and
// creation time are assigned by the metadata store.
type NewFileRecord struct {
	Name    *string
	Size    *int64
	Comment *string
}

// FileRecord describes one retained update artifact.
type FileRecord struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name"`
	Size      *int64    `json:"size"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers cannot mutate stored optional fields.
func (r FileRecord) Clone() FileRecord {
	out := r
	if r.Name != nil {
		v := *r.Name
		out.Name = &v
	}
	if r.Size != nil {
		v := *r.Size
		out.Size = &v
	}
	if r.Comment != nil {
		v := *r.Comment
		out.Comment = &v
	}
	return out
}

// StringPtr returns nil for an empty string and a pointer otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
