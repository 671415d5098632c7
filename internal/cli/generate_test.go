package cli

import (
	"context"
	"reflect"
	"testing"

	"github.com/codeprimer/codeprimer/pkg/cache"
	"github.com/codeprimer/codeprimer/pkg/errors"
	"github.com/codeprimer/codeprimer/pkg/source"
)

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		flags    generateFlags
		wantKind source.Kind
		wantLoc  string
		wantErr  bool
	}{
		{
			name:     "positional URL",
			args:     []string{"https://github.com/x/y"},
			wantKind: source.KindRemote,
			wantLoc:  "https://github.com/x/y",
		},
		{
			name:     "positional directory",
			args:     []string{"./myproject"},
			wantKind: source.KindLocal,
			wantLoc:  "./myproject",
		},
		{
			name:     "repo flag",
			flags:    generateFlags{repo: "https://github.com/x/y"},
			wantKind: source.KindRemote,
			wantLoc:  "https://github.com/x/y",
		},
		{
			name:     "dir flag",
			flags:    generateFlags{dir: "/src/app"},
			wantKind: source.KindLocal,
			wantLoc:  "/src/app",
		},
		{
			name:    "both flags conflict",
			flags:   generateFlags{repo: "https://github.com/x/y", dir: "/src"},
			wantErr: true,
		},
		{
			name:    "no source",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := resolveSource(tt.args, tt.flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if ref.Kind != tt.wantKind || ref.Location != tt.wantLoc {
				t.Errorf("ref = %+v", ref)
			}
		})
	}
}

func TestSourceOptionsDefaults(t *testing.T) {
	opts, err := sourceOptions(generateFlags{maxFileBytes: source.DefaultMaxFileBytes}, nil)
	if err != nil {
		t.Fatalf("sourceOptions error: %v", err)
	}
	if !reflect.DeepEqual(opts.IncludePatterns, source.DefaultIncludePatterns) {
		t.Errorf("IncludePatterns = %v, want the default set", opts.IncludePatterns)
	}
	if !reflect.DeepEqual(opts.ExcludePatterns, source.DefaultExcludePatterns) {
		t.Errorf("ExcludePatterns = %v, want the default set", opts.ExcludePatterns)
	}
	if opts.MaxFileBytes != source.DefaultMaxFileBytes {
		t.Errorf("MaxFileBytes = %d", opts.MaxFileBytes)
	}
}

func TestSourceOptionsExplicitPatterns(t *testing.T) {
	f := generateFlags{
		include: []string{"*.go"},
		exclude: []string{"vendor/*"},
	}
	opts, err := sourceOptions(f, nil)
	if err != nil {
		t.Fatalf("sourceOptions error: %v", err)
	}
	if !reflect.DeepEqual(opts.IncludePatterns, []string{"*.go"}) {
		t.Errorf("IncludePatterns = %v, want user patterns only", opts.IncludePatterns)
	}
	if !reflect.DeepEqual(opts.ExcludePatterns, []string{"vendor/*"}) {
		t.Errorf("ExcludePatterns = %v, want user patterns only", opts.ExcludePatterns)
	}
}

func TestSourceOptionsRejectsInvalidPattern(t *testing.T) {
	_, err := sourceOptions(generateFlags{include: []string{"bad\x00pattern"}}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}
}

func TestNewCacheBackends(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := &CLI{Config: defaultConfig()}
	ctx := context.Background()

	store, err := c.newCache(ctx, true)
	if err != nil {
		t.Fatalf("newCache(noCache) error: %v", err)
	}
	if _, ok := store.(*cache.NullCache); !ok {
		t.Errorf("noCache backend = %T, want *cache.NullCache", store)
	}

	store, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatalf("newCache error: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*cache.FileCache); !ok {
		t.Errorf("default backend = %T, want *cache.FileCache", store)
	}
}
