// Package errs provides the error taxonomy used across the engine: a
// ParseError for malformed input and CheckFailed for internal invariant
// violations. Value-shaped absence has no error value here; lookups report
// it through a boolean result or a sentinel id.
package errs

import (
	"fmt"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeQueryParseInvalid            Code = "query.parse.invalid"
	CodeQueryPrefixInvalid           Code = "query.prefix.invalid"
	CodeQueryAliasInvalid            Code = "query.alias.invalid"
	CodeQueryCheckFailed             Code = "query.check.failed"
	CodeVocabCheckFailed             Code = "vocab.check.failed"
	CodeTransitivePathCheckFailed    Code = "transitivepath.check.failed"
	CodeStoreFailure                 Code = "store.failure"
	CodeServerRequestInvalid         Code = "server.request.invalid"
	CodeServerInternalFailure        Code = "server.internal.failure"
	CodeConfigInvalid                Code = "config.invalid"
	CodeCLIFailure                   Code = "cli.failure"
	CodeIngestParseInvalid           Code = "ingest.parse.invalid"
	CodeIngestContentTypeUnsupported Code = "ingest.contenttype.unsupported"
)

// Attr is a structured key/value attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field builds a structured error attribute.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// New builds a ParseError- or CheckFailed-shaped error tagged with code.
func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(string(code)).With(flatten(fields)...).New(msg)
}

// Errorf is New with printf-style formatting.
func Errorf(code Code, format string, args ...any) error {
	return oops.Code(string(code)).Errorf(format, args...)
}

// Wrap attaches code and fields to an existing error chain. Returns nil if err is nil.
func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return oops.Code(string(code)).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

// CodeOf extracts the Code from an error produced by this package, or "" if none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}
	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

// IsParseError reports whether err is a ParseError-shaped failure.
func IsParseError(err error) bool {
	switch CodeOf(err) {
	case CodeQueryParseInvalid, CodeQueryPrefixInvalid, CodeQueryAliasInvalid,
		CodeIngestParseInvalid, CodeIngestContentTypeUnsupported:
		return true
	default:
		return false
	}
}

// IsCheckFailed reports whether err is an internal-invariant-violation failure.
func IsCheckFailed(err error) bool {
	switch CodeOf(err) {
	case CodeQueryCheckFailed, CodeVocabCheckFailed, CodeTransitivePathCheckFailed:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an error onto the status code the server layer should return.
func HTTPStatus(err error) int {
	switch {
	case IsParseError(err):
		return 400
	case CodeOf(err) == CodeServerRequestInvalid:
		return 400
	case IsCheckFailed(err):
		return 500
	default:
		return 500
	}
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		pairs = append(pairs, f.Key, f.Value)
	}
	return pairs
}
