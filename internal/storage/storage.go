// Package storage holds submission attachments. The service depends on
// the ObjectStore interface only; the disk implementation stands in for
// whatever hosted object store a deployment points at.
package storage

import "context"

// ObjectStore persists an attachment and returns its public URL.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}
