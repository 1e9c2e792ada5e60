// Package errors provides the classified error primitives used across scanbinder.
//
// Every failure the program reports to the user is a ClassifiedError carrying a
// category (config, plugin, toc, external command, task, ...), a severity, a
// human-readable message, an optional cause and structured context. Packages
// keep their own sentinel errors (config.ErrOptionMissing, toc.ErrNesting, ...)
// as causes so callers can match them with errors.Is.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryConfig, "option 'pdf-file' for 'pdf' target is not found").
//		WithCause(config.ErrOptionMissing).
//		WithContext("target", "pdf").
//		WithContext("option", "pdf-file").
//		Build()
package errors
