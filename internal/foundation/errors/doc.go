// Package errors provides the classified error primitives used across dynlinks.
//
// A ClassifiedError carries a category, a severity, a retry hint and structured
// context. Errors are built with the fluent ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryItems, "item catalog fetch failed").
//		Retryable().
//		WithContext("url", sourceURL).
//		Build()
//
// The CLI and HTTP adapters translate categories into exit codes and status codes.
package errors
