// Package policy manages named redaction policy contexts: loading presets,
// merging request-level overrides, and filtering detector spans.
package policy
