package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextRoundTrip verifies attachment and the nil default.
func TestContextRoundTrip(t *testing.T) {
	p := &Policy{ChunkSize: 16}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

// TestEffectiveChunkSize verifies override and fallback behaviour, including
// the nil receiver.
func TestEffectiveChunkSize(t *testing.T) {
	var none *Policy
	assert.EqualValues(t, 4, none.EffectiveChunkSize(4))
	assert.EqualValues(t, 4, (&Policy{}).EffectiveChunkSize(4))
	assert.EqualValues(t, 32, (&Policy{ChunkSize: 32}).EffectiveChunkSize(4))
}
