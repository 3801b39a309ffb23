package schema

import (
	"errors"
	"fmt"
)

// Error classes shared by the loader, the normalizer and every notation.
var (
	// ErrStructuralMismatch means a file name disagrees with its declared $id.
	ErrStructuralMismatch = errors.New("structural mismatch")
	// ErrUnsupportedShape means a node matches none of the recognized shapes.
	ErrUnsupportedShape = errors.New("unsupported shape")
	// ErrUnsupportedFormat means a format tag has no mapping in a notation.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrAdditionalProperties means an object schema allows undeclared properties.
	ErrAdditionalProperties = errors.New("unexpected additionalProperties")
)

// ShapeError locates a problem inside a single schema document.
type ShapeError struct {
	Err    error
	Path   string
	Detail string
}

func (e *ShapeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v at %s", e.Err, e.Path)
	}
	return fmt.Sprintf("%v at %s: %s", e.Err, e.Path, e.Detail)
}

func (e *ShapeError) Unwrap() error { return e.Err }

func shapeErrorf(class error, path, format string, args ...any) *ShapeError {
	return &ShapeError{Err: class, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// UnsupportedFormat builds the error a notation returns for a scalar whose
// format it cannot map.
func UnsupportedFormat(s *Scalar) error {
	return shapeErrorf(ErrUnsupportedFormat, s.Path, "%s with format %q", s.Type, s.Format)
}

// SchemaError attaches the offending schema name and raw content to an error.
type SchemaError struct {
	Name string
	Path string
	Raw  []byte
	Err  error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema %s: %v", e.Name, e.Err)
	if e.Path != "" {
		msg = fmt.Sprintf("schema %s (%s): %v", e.Name, e.Path, e.Err)
	}
	if len(e.Raw) > 0 {
		msg += "\n" + string(e.Raw)
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

// WrapDocument attaches doc's identity to err. A nil err stays nil.
func WrapDocument(doc *Document, err error) error {
	if err == nil {
		return nil
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return err
	}
	return &SchemaError{Name: doc.Name, Path: doc.Path, Raw: doc.Raw, Err: err}
}

// NewShapeError builds a located error of the given class for callers outside
// the package.
func NewShapeError(class error, path, format string, args ...any) error {
	return shapeErrorf(class, path, format, args...)
}
