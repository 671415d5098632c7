package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Stage hooks
	s := NoopStageHooks{}
	s.OnStageStart(ctx, "extract", "requests")
	s.OnStageComplete(ctx, "extract", "requests", 8, time.Second, nil)

	// Model hooks
	m := NoopModelHooks{}
	m.OnModelCall(ctx, "gemini", "gemini-2.5-flash", 4096)
	m.OnModelResponse(ctx, "gemini", "gemini-2.5-flash", 2048, false, time.Second)
	m.OnModelError(ctx, "gemini", "gemini-2.5-flash", nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "prompt")
	c.OnCacheMiss(ctx, "prompt")
	c.OnCacheSet(ctx, "prompt", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Stage().(NoopStageHooks); !ok {
		t.Error("Stage() should return NoopStageHooks by default")
	}
	if _, ok := Model().(NoopModelHooks); !ok {
		t.Error("Model() should return NoopModelHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customStage := &testStageHooks{}
	SetStageHooks(customStage)
	if Stage() != customStage {
		t.Error("SetStageHooks should set custom hooks")
	}

	customModel := &testModelHooks{}
	SetModelHooks(customModel)
	if Model() != customModel {
		t.Error("SetModelHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Stage().(NoopStageHooks); !ok {
		t.Error("Reset() should restore NoopStageHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testStageHooks{}
	SetStageHooks(custom)

	// Setting nil should be ignored
	SetStageHooks(nil)

	if Stage() != custom {
		t.Error("SetStageHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testStageHooks struct{ NoopStageHooks }
type testModelHooks struct{ NoopModelHooks }
type testCacheHooks struct{ NoopCacheHooks }
