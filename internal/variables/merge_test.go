package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		base    map[string]any
		overlay map[string]any
		want    map[string]any
	}{
		{
			name: "basic merge overlay wins",
			base: map[string]any{
				"key1": "base1",
				"key2": "base2",
			},
			overlay: map[string]any{
				"key2": "overlay2",
				"key3": "overlay3",
			},
			want: map[string]any{
				"key1": "base1",
				"key2": "overlay2",
				"key3": "overlay3",
			},
		},
		{
			name: "nested mappings merge recursively",
			base: map[string]any{
				"a": 1,
				"b": map[string]any{"x": 1},
			},
			overlay: map[string]any{
				"b": map[string]any{"y": 2},
			},
			want: map[string]any{
				"a": 1,
				"b": map[string]any{"x": 1, "y": 2},
			},
		},
		{
			name: "sequences replace wholesale",
			base: map[string]any{
				"ports": []any{"80", "443"},
			},
			overlay: map[string]any{
				"ports": []any{"8080"},
			},
			want: map[string]any{
				"ports": []any{"8080"},
			},
		},
		{
			name: "type conflict replaces silently",
			base: map[string]any{
				"value": map[string]any{"nested": true},
			},
			overlay: map[string]any{
				"value": "scalar",
			},
			want: map[string]any{
				"value": "scalar",
			},
		},
		{
			name: "scalar replaced by mapping",
			base: map[string]any{
				"value": "scalar",
			},
			overlay: map[string]any{
				"value": map[string]any{"nested": true},
			},
			want: map[string]any{
				"value": map[string]any{"nested": true},
			},
		},
		{
			name:    "nil base",
			base:    nil,
			overlay: map[string]any{"a": 1},
			want:    map[string]any{"a": 1},
		},
		{
			name:    "nil overlay",
			base:    map[string]any{"a": 1},
			overlay: nil,
			want:    map[string]any{"a": 1},
		},
		{
			name: "deep nesting",
			base: map[string]any{
				"l1": map[string]any{
					"l2": map[string]any{
						"keep":     "base",
						"override": "base",
					},
				},
			},
			overlay: map[string]any{
				"l1": map[string]any{
					"l2": map[string]any{
						"override": "overlay",
						"add":      "overlay",
					},
				},
			},
			want: map[string]any{
				"l1": map[string]any{
					"l2": map[string]any{
						"keep":     "base",
						"override": "overlay",
						"add":      "overlay",
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.base, tt.overlay)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"b": map[string]any{"x": 1}}
	overlay := map[string]any{"b": map[string]any{"y": 2}}

	got := Merge(base, overlay)
	got["b"].(map[string]any)["z"] = 3

	assert.Equal(t, map[string]any{"b": map[string]any{"x": 1}}, base)
	assert.Equal(t, map[string]any{"b": map[string]any{"y": 2}}, overlay)
}
