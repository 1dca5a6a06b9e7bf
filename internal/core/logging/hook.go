package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts document_uri and owner_id from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if uri := GetDocumentURI(ctx); uri != "" {
		e.Str("document_uri", uri)
	}

	if ownerID := GetOwnerID(ctx); ownerID != "" {
		e.Str("owner_id", ownerID)
	}
}
