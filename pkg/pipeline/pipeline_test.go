package pipeline

import (
	"context"
	"testing"

	"github.com/followviz/followviz/pkg/cache"
	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/graph"
	"github.com/followviz/followviz/pkg/layout"
	"github.com/followviz/followviz/pkg/source"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"json", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should validate: %v", err)
	}

	if opts.ViewMode != string(graph.DefaultViewMode) {
		t.Errorf("ViewMode = %q", opts.ViewMode)
	}
	if opts.Label != string(graph.DefaultLabel) {
		t.Errorf("Label = %q", opts.Label)
	}
	if opts.Style != string(layout.DefaultStyle) {
		t.Errorf("Style = %q", opts.Style)
	}
	if opts.Width != DefaultViewWidth || opts.Height != DefaultViewHeight {
		t.Errorf("viewport = %gx%g", opts.Width, opts.Height)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v", opts.Formats)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"BadViewMode", Options{ViewMode: "sideways"}, errors.ErrCodeInvalidViewMode},
		{"BadLabel", Options{Label: "meta.secret"}, errors.ErrCodeInvalidLabelField},
		{"BadStyle", Options{Style: "diagonal"}, errors.ErrCodeInvalidLayoutStyle},
		{"BadFormat", Options{Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func demoRunner() *Runner {
	return NewRunner(source.NewStaticSource("demo", source.Demo()), nil, nil, nil)
}

func TestRunner_Fetch(t *testing.T) {
	r := demoRunner()
	defer r.Close()

	topo, hit, err := r.FetchWithCacheInfo(context.Background(), Options{})
	if err != nil {
		t.Fatalf("FetchWithCacheInfo: %v", err)
	}
	if hit {
		t.Error("first fetch through a null cache reported a hit")
	}
	if len(topo.Followers) == 0 {
		t.Error("demo topology has no followers")
	}
}

func TestRunner_FetchCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(source.NewStaticSource("demo", source.Demo()), fc, nil, nil)
	defer r.Close()

	ctx := context.Background()
	if _, hit, err := r.FetchWithCacheInfo(ctx, Options{}); err != nil || hit {
		t.Fatalf("first fetch: hit=%v err=%v", hit, err)
	}
	if _, hit, err := r.FetchWithCacheInfo(ctx, Options{}); err != nil || !hit {
		t.Fatalf("second fetch: hit=%v err=%v, want cache hit", hit, err)
	}
	// Refresh bypasses the cache.
	if _, hit, err := r.FetchWithCacheInfo(ctx, Options{Refresh: true}); err != nil || hit {
		t.Fatalf("refresh fetch: hit=%v err=%v, want bypass", hit, err)
	}
}

func TestRunner_BuildModel(t *testing.T) {
	r := demoRunner()
	defer r.Close()

	topo, err := r.Fetch(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	model, err := r.BuildModel(context.Background(), topo, Options{ViewMode: "both", Clusters: true})
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	if len(model.Nodes) != len(topo.Followers)+1 {
		t.Errorf("nodes = %d, want %d", len(model.Nodes), len(topo.Followers)+1)
	}
	if len(model.Clusters) == 0 {
		t.Error("demo topology produced no clusters")
	}

	if _, err := r.BuildModel(context.Background(), topo, Options{ViewMode: "sideways"}); err == nil {
		t.Error("invalid view mode should fail")
	}
}

func TestRunner_RenderFormats(t *testing.T) {
	r := demoRunner()
	defer r.Close()

	model, err := r.BuildModel(context.Background(), source.Demo(), Options{})
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}

	// DOT and JSON artifacts don't need a real graphviz run.
	l := &layout.Result{
		DOT:      layout.ToDOT(model, layout.StyleStandard),
		Style:    layout.StyleStandard,
		Geometry: layout.Geometry{Width: 100, Height: 100},
		SVG:      []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 100.00" width="100" height="100"></svg>`),
	}

	artifacts, err := r.Render(context.Background(), l, model, Options{Formats: []string{"dot", "json", "svg"}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, format := range []string{"dot", "json", "svg"} {
		if len(artifacts[format]) == 0 {
			t.Errorf("artifact %q is empty", format)
		}
	}
	if got, err := graph.UnmarshalModel(artifacts["json"]); err != nil || len(got.Nodes) != len(model.Nodes) {
		t.Errorf("json artifact round trip failed: %v", err)
	}
}
