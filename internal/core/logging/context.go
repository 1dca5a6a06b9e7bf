package logging

import "context"

type contextKey string

const (
	documentURIKey contextKey = "document_uri"
	ownerIDKey     contextKey = "owner_id"
)

// WithDocumentURI adds a document URI to the context.
func WithDocumentURI(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, documentURIKey, uri)
}

// WithOwnerID adds a comment provider owner ID to the context.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// GetDocumentURI retrieves the document URI from the context.
// Returns empty string if not present.
func GetDocumentURI(ctx context.Context) string {
	if uri, ok := ctx.Value(documentURIKey).(string); ok {
		return uri
	}
	return ""
}

// GetOwnerID retrieves the owner ID from the context.
// Returns empty string if not present.
func GetOwnerID(ctx context.Context) string {
	if id, ok := ctx.Value(ownerIDKey).(string); ok {
		return id
	}
	return ""
}
