package model

import (
	"encoding/json"
	"time"
)

// Status titles. Each title exists exactly once in the statuses table.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Status is a row of the status registry.
type Status struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Payload is an arbitrary JSON object stored on a document.
type Payload map[string]any

// Clone returns a deep copy of the payload.
func (p Payload) Clone() Payload {
	if p == nil {
		return Payload{}
	}
	return Payload(cloneObject(p))
}

// Encode encodes the payload as JSON, mapping nil to {}.
func (p Payload) Encode() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(p))
}

// ParsePayload decodes a JSON object. Empty input yields an empty payload.
func ParsePayload(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, nil
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

// Document is a value snapshot of a stored document.
// StatusID is empty when the referenced status row was removed.
type Document struct {
	ID         string
	UserID     string
	StatusID   string
	Status     string
	Payload    Payload
	CreatedAt  time.Time
	ModifiedAt time.Time
	Version    int64
}

// IsDraft returns true if the document is still editable by its owner.
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft
}

// IsPublished returns true if the document is world-readable.
func (d *Document) IsPublished() bool {
	return d.Status == StatusPublished
}

// IsOwnedBy reports whether userID owns the document.
func (d *Document) IsOwnedBy(userID string) bool {
	return userID != "" && d.UserID == userID
}

func cloneObject(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneObject(t)
	case Payload:
		return cloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
