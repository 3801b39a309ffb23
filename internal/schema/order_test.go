package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectRefs(t *testing.T, name string, refs ...string) *Document {
	t.Helper()
	props := ""
	for i, r := range refs {
		if i > 0 {
			props += ","
		}
		props += fmt.Sprintf(`"p%d": {"$ref": "/schemas/%s"}`, i, r)
	}
	return mustParse(t, name+".json", fmt.Sprintf(`{"$id": "/schemas/%s", "type": "object", "properties": {%s}}`, name, props))
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestDependencyOrder(t *testing.T) {
	tests := []struct {
		name  string
		docs  func(t *testing.T) []*Document
		check func(t *testing.T, order []string)
	}{
		{
			name: "referenced before referrer",
			docs: func(t *testing.T) []*Document {
				return []*Document{
					objectRefs(t, "A", "C"),
					objectRefs(t, "B"),
					objectRefs(t, "C", "B"),
				}
			},
			check: func(t *testing.T, order []string) {
				assert.Equal(t, []string{"B", "C", "A"}, order)
			},
		},
		{
			name: "disconnected documents keep name order",
			docs: func(t *testing.T) []*Document {
				return []*Document{objectRefs(t, "Z"), objectRefs(t, "Y"), objectRefs(t, "X")}
			},
			check: func(t *testing.T, order []string) {
				assert.Equal(t, []string{"X", "Y", "Z"}, order)
			},
		},
		{
			name: "union branches arrays and defs",
			docs: func(t *testing.T) []*Document {
				return []*Document{
					mustParse(t, "U.json", `{"$id": "/schemas/U", "oneOf": [{"$ref": "/schemas/V"}, {"$ref": "#/$defs/L"}],
						"$defs": {"L": {"type": "object", "properties": {"w": {"$ref": "/schemas/W"}}}}}`),
					mustParse(t, "Arr.json", `{"$id": "/schemas/Arr", "type": "object", "properties": {
						"items": {"type": "array", "items": {"$ref": "/schemas/U"}}}}`),
					objectRefs(t, "V"),
					objectRefs(t, "W"),
				}
			},
			check: func(t *testing.T, order []string) {
				assert.Equal(t, []string{"W", "V", "U", "Arr"}, order)
			},
		},
		{
			name: "cycles and unknown names terminate",
			docs: func(t *testing.T) []*Document {
				return []*Document{objectRefs(t, "A", "B"), objectRefs(t, "B", "A", "Missing")}
			},
			check: func(t *testing.T, order []string) {
				assert.Equal(t, []string{"B", "A"}, order)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DependencyOrder(NewSet(tt.docs(t)...)))
		})
	}
}

func TestDependencyOrder_Topological(t *testing.T) {
	set := NewSet(
		objectRefs(t, "Block", "Event", "Hash"),
		objectRefs(t, "Event", "Seed", "Schema"),
		objectRefs(t, "Schema", "Hash"),
		objectRefs(t, "Seed"),
		objectRefs(t, "Hash"),
		objectRefs(t, "Lonely"),
	)
	order := DependencyOrder(set)
	require.Len(t, order, set.Len())

	for _, doc := range set.Documents() {
		pos := indexOf(order, doc.Name)
		require.GreaterOrEqual(t, pos, 0, doc.Name)
		for _, ref := range References(doc) {
			assert.Less(t, indexOf(order, ref), pos, "%s must come before %s", ref, doc.Name)
		}
	}
	assert.Equal(t, order, DependencyOrder(set))
}
