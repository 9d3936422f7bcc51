package csharp

import (
	"errors"
	"fmt"

	"bindgen/internal/diag"
)

// ErrUnsupportedCallbackShape is the class of callback layouts the
// Task-based wrappers cannot express.
var ErrUnsupportedCallbackShape = diag.ErrUnsupportedCallbackShape

func unsupported(format string, args ...any) *diag.Error {
	return diag.NewErr(diag.TypUnsupported, fmt.Sprintf(format, args...))
}

func badShape(format string, args ...any) *diag.Error {
	return diag.NewErr(diag.EmtUnsupportedCallbackShape, fmt.Sprintf(format, args...))
}

// at tags err with the field or parameter it concerns.
func at(err error, item string) error {
	var de *diag.Error
	if errors.As(err, &de) {
		return de.At(item)
	}
	return err
}
