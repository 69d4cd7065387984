package storage

import "io"

// BlobStore holds grading files by key: reference fixtures on the read side,
// archived job output on the write side.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
