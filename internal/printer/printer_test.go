package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Printf("plain %d", 1)
	p.Successf("done")
	p.Errorf("failed: %s", "boom")

	out := buf.String()
	assert.Contains(t, out, "plain 1\n")
	assert.Contains(t, out, "done\n")
	assert.Contains(t, out, "failed: boom\n")
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	ctx := NewContext(context.Background(), p)
	assert.Same(t, p, Ctx(ctx))
	assert.NotNil(t, Ctx(context.Background()))
}
