package requestid

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := NewContext(context.Background(), "req-7")
	if got := FromContext(ctx); got != "req-7" {
		t.Errorf("FromContext = %q, want req-7", got)
	}
}

func TestFromContext_Missing(t *testing.T) {
	if got := FromContext(context.Background()); got != "" {
		t.Errorf("FromContext = %q, want empty", got)
	}
}

func TestAttr(t *testing.T) {
	attr := Attr(NewContext(context.Background(), "req-9"))
	if attr.Key != LogKey || attr.Value.String() != "req-9" {
		t.Errorf("Attr = %v", attr)
	}
}
