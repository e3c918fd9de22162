package errors

import (
	"fmt"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic', got '%s'", ee.Category)
	}
}

func TestBuilderCategoryAndContext(t *testing.T) {
	t.Parallel()

	ee := Newf("upload failed: %d", 502).
		Category(CategoryNetwork).
		Context("status_code", 502).
		Component("plantnet").
		Build()

	if ee.GetComponent() != "plantnet" {
		t.Errorf("Expected component 'plantnet', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryNetwork {
		t.Errorf("Expected category 'network', got '%s'", ee.Category)
	}

	ctx := ee.GetContext()
	if ctx["status_code"] != 502 {
		t.Errorf("Expected status_code 502 in context, got %v", ctx["status_code"])
	}
}

func TestContextCopyIsolation(t *testing.T) {
	t.Parallel()

	ee := Newf("boom").Context("key", "value").Build()
	ctx := ee.GetContext()
	ctx["key"] = "mutated"

	if ee.GetContext()["key"] != "value" {
		t.Error("GetContext must return a copy, original context was mutated")
	}
}

func TestUnwrapAndIs(t *testing.T) {
	t.Parallel()

	base := NewStd("base failure")
	ee := New(fmt.Errorf("wrapped: %w", base)).Category(CategoryFileIO).Build()

	if !Is(ee, base) {
		t.Error("expected Is to match the wrapped base error")
	}

	var target *EnhancedError
	if !As(ee, &target) {
		t.Error("expected As to extract EnhancedError")
	}
}

func TestIsCategory(t *testing.T) {
	t.Parallel()

	ee := Newf("no species matched").Category(CategoryNotFound).Build()

	if !IsNotFound(ee) {
		t.Error("expected IsNotFound to report true")
	}
	if IsCategory(ee, CategoryNetwork) {
		t.Error("expected IsCategory(network) to report false")
	}
	if IsCategory(NewStd("plain"), CategoryNotFound) {
		t.Error("plain errors should not match any category")
	}
}

func TestNetworkContext(t *testing.T) {
	t.Parallel()

	ee := Newf("timeout").
		Category(CategoryTimeout).
		NetworkContext("https://my-api.plantnet.org/v2/identify/all", 0).
		Build()

	if ee.GetContext()["url_category"] != "https-endpoint" {
		t.Errorf("expected url_category 'https-endpoint', got %v", ee.GetContext()["url_category"])
	}
}
