// Package redaction implements the two pipelines at the heart of the engine:
// turning detector spans into vaulted tokens, and turning redacted text back
// into originals under policy control.
package redaction
