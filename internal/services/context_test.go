package services_test

import (
	"context"
	"testing"

	"bsrbot/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithInvoker(ctx, "viewer")
	ctx = services.WithStage(ctx, "download")
	ctx = services.WithRequestID(ctx, "req-123")

	if invoker, ok := services.InvokerFromContext(ctx); !ok || invoker != "viewer" {
		t.Fatalf("unexpected invoker: %v %v", invoker, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "download" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
