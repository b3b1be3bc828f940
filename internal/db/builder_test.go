package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_PageSchema(t *testing.T) {
	idx := NewIndex("crawl:ebola:page:idx").
		Prefix("crawl:ebola:page:").
		Tag("url").
		Text("text").
		TagWithOpts("tag", ";", true).
		SortableNumeric("retrieved").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 4 {
		t.Fatalf("fields count = %d, want 4", len(idx.Fields))
	}
	tag := idx.Fields[2]
	if tag.TagSeparator != ";" || !tag.TagCaseSensitive {
		t.Errorf("tag field = %+v, want separator ; and case sensitive", tag)
	}
	if !idx.Fields[3].Sortable {
		t.Error("retrieved should be sortable")
	}
}

func TestIndexBuilder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Tag("a"), "index name is required"},
		{"bad name", NewIndex("bad name").Tag("a"), "invalid characters"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"duplicate", NewIndex("idx").Tag("a").Numeric("a"), "duplicate field name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		}
	}()
	NewIndex("").MustBuild()
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("idx").Prefix("p:").Tag("term").SortableNumeric("retrieved").MustBuild()
	got := idx.String()
	want := "FT.CREATE idx ON HASH PREFIX p: SCHEMA term TAG retrieved NUMERIC SORTABLE"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ebola_2015", true},
		{"crawl:seed-1", true},
		{"", false},
		{"with space", false},
		{"slash/path", false},
	}
	for _, tt := range tests {
		if got := IsValidIdentifier(tt.in); got != tt.want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
