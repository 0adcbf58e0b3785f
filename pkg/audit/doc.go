// Package audit implements the asynchronous leak-audit loop and the
// restoration audit trail.
//
// Every redaction call enqueues one job carrying the redacted text and the
// tokens minted by that call. A background worker re-checks the redacted text
// through an LLM verifier and, on a confirmed leak, purges exactly that job's
// tokens from the vault. The worker never blocks the redaction path, never
// retries, and treats every verifier failure as a non-leak.
package audit
