package services_test

import (
	"context"
	"testing"

	"voicematch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithComparisonID(ctx, "cmp-456")
	ctx = services.WithStage(ctx, "convert")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if cid, ok := services.ComparisonIDFromContext(ctx); !ok || cid != "cmp-456" {
		t.Fatalf("unexpected comparison id: %v %v", cid, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "convert" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	if services.WithStage(ctx, "") != ctx {
		t.Fatal("expected blank stage to return original context")
	}
	if services.WithRequestID(ctx, "") != ctx {
		t.Fatal("expected blank request id to return original context")
	}
	if _, ok := services.ComparisonIDFromContext(ctx); ok {
		t.Fatal("expected no comparison id")
	}
}
