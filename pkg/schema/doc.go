// Package schema wraps kin-openapi schemas for form use: resolving field paths
// (so rules can be checked at registration), validating value snapshots, and
// composing nested schemas owned by reusable form parts.
package schema
