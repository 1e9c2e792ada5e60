package toc

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

// Sentinels for the three kinds of outline format errors.
var (
	ErrEncoding   = errors.New("unsupported outline encoding")
	ErrLineFormat = errors.New("invalid outline line")
	ErrNesting    = errors.New("invalid outline nesting")
)

func encodingError(name string) error {
	return ferrors.NewErrorf(ferrors.CategoryTOC, "incorrect encoding name %q at the first line of file", name).
		WithKind(ErrEncoding).
		WithContext("line", 1).
		Build()
}

func lineFormatError(line int) error {
	return ferrors.NewErrorf(ferrors.CategoryTOC,
		"line %d: incorrect syntax, should be: <several '*'> <page number> <description>", line).
		WithKind(ErrLineFormat).
		WithContext("line", line).
		Build()
}

func nestingError(line int) error {
	return ferrors.NewErrorf(ferrors.CategoryTOC,
		"line %d: a line must be nested at most one level deeper than the previous one", line).
		WithKind(ErrNesting).
		WithContext("line", line).
		Build()
}

func readError(path string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryTOC, fmt.Sprintf("error while reading table of contents file '%s'", path)).
		WithContext("path", path).
		Build()
}

func writeError(path string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("error while writing table of contents file '%s'", path)).
		WithContext("path", path).
		Build()
}
