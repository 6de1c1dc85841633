package csvbuild

import "errors"

var (
	// ErrInvalidData is returned when records are malformed or mix shapes.
	ErrInvalidData = errors.New("invalid export data")

	// ErrInvalidOptions is returned when the build options are degenerate,
	// for example when the field separator equals the text delimiter.
	ErrInvalidOptions = errors.New("invalid export options")
)
