package domain

import "errors"

var (
	// ErrInvalidInput signals a caller-supplied empty or malformed value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderUnavailable signals a transport-level failure reaching the embedding/generation provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrStoreUnavailable signals a transport-level failure reaching the vector store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEmptyResult signals a successful response carrying no usable payload.
	ErrEmptyResult = errors.New("empty result")
	// ErrDecode signals a malformed streamed payload.
	ErrDecode = errors.New("decode error")
	// ErrNoDocuments signals that no documents survived loading or embedding.
	ErrNoDocuments = errors.New("no documents")
)
