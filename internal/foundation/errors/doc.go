// Package errors provides the classified error type used across typedstrings.
//
// A ClassifiedError carries a category (what kind of thing failed), a severity and a small
// context map. Categories drive two decisions: whether the generation coordinator may continue
// with the next unit, and which exit code the CLI returns.
//
// Example usage:
//
//	err := errors.SourceError("read tag manager").
//		WithCause(readErr).
//		WithContext("path", assetPath).
//		Build()
package errors
