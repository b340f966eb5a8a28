// Package payload implements the JSON merge-patch applied when a document is edited.
package payload

import (
	"github.com/docket/docket/internal/model"
)

// Merge applies patch to base and returns a new payload. Neither input is modified.
//
// Objects merge recursively. A null in the patch removes the key at that
// depth. Arrays and scalars replace the base value wholesale.
func Merge(base, patch model.Payload) model.Payload {
	out := base.Clone()
	mergeInto(out, patch)
	return out
}

func mergeInto(dst map[string]any, patch map[string]any) {
	for k, pv := range patch {
		if pv == nil {
			delete(dst, k)
			continue
		}

		po, ok := asObject(pv)
		if !ok {
			dst[k] = cloneValue(pv)
			continue
		}

		bo, ok := asObject(dst[k])
		if !ok {
			bo = map[string]any{}
		}
		mergeInto(bo, po)
		dst[k] = bo
	}
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case model.Payload:
		return t, true
	default:
		return nil, false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
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
