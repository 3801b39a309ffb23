package codegen

import (
	"fmt"

	"odf-codegen/internal/schema"
)

// rustEnumFlags emits a bitflags set with one bit per union variant, used to
// filter metadata events by type.
type rustEnumFlags struct{ Base }

func (rustEnumFlags) Info() Info {
	return Info{
		Name:   "rust-enum-flags",
		Indent: "    ",
		Preamble: withWarning(
			"use bitflags::bitflags;",
			"",
			"use crate::*;",
			"",
		),
		SkipVariantTypes: true,
		Shapes:           []schema.Shape{schema.ShapeUnion},
		Include:          []string{"MetadataEvent"},
	}
}

// maxTypeFlags is the bit width of the generated flag set.
const maxTypeFlags = 32

// Check rejects unions with more variants than the flag set has bits.
func (rustEnumFlags) Check(d *Decl) error {
	if len(d.Variants) > maxTypeFlags {
		return schema.NewShapeError(schema.ErrUnsupportedShape, d.Meta().Path,
			"%s has %d variants but %sTypeFlags holds at most %d", d.Name, len(d.Variants), d.Name, maxTypeFlags)
	}
	return nil
}

// Field types never appear in the output; the table only has to accept them.
func (rustEnumFlags) MapScalar(s *schema.Scalar) (string, error) { return s.Type, nil }

func (rustEnumFlags) UnionHeader(d *Decl) []string {
	return []string{
		"bitflags! {",
		"    #[derive(Debug, Clone, Copy, PartialEq, Eq, PartialOrd, Ord)]",
		fmt.Sprintf("    pub struct %sTypeFlags: u32 {", d.Name),
	}
}

func (rustEnumFlags) VariantLine(_ *Decl, v *Variant) []string {
	return []string{fmt.Sprintf("    const %s = 1 << %d;", ScreamingSnake(v.Tag), v.Index)}
}

func (rustEnumFlags) UnionFooter(d *Decl) []string {
	lines := []string{
		"    }",
		"}",
		"",
		fmt.Sprintf("impl From<&%s> for %sTypeFlags {", d.Name, d.Name),
		fmt.Sprintf("    fn from(v: &%s) -> Self {", d.Name),
		"        match v {",
	}
	for _, v := range d.Variants {
		pattern := v.Tag + "(_)"
		if v.Inline && v.Empty {
			pattern = v.Tag
		}
		lines = append(lines, fmt.Sprintf("            %s::%s => Self::%s,", d.Name, pattern, ScreamingSnake(v.Tag)))
	}
	return append(lines, "        }", "    }", "}")
}
