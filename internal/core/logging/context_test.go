package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetDocumentURI(ctx))
	assert.Empty(t, GetOwnerID(ctx))

	ctx = WithDocumentURI(ctx, "file:///main.go")
	ctx = WithOwnerID(ctx, "github")

	assert.Equal(t, "file:///main.go", GetDocumentURI(ctx))
	assert.Equal(t, "github", GetOwnerID(ctx))
}
