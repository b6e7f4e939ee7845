package models

import (
	"reflect"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "trim lower dedupe drop empty", in: []string{"  Foo", "foo", ""}, want: []string{"foo"}},
		{name: "keeps first seen order", in: []string{"b", "A", "a", "c"}, want: []string{"b", "a", "c"}},
		{name: "whitespace only", in: []string{" ", "\t"}, want: []string{}},
		{name: "nil", in: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestSplitTagString(t *testing.T) {
	got := SplitTagString("  Report  2024\tQ1 report ")
	want := []string{"report", "2024", "q1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
	if got := SplitTagString(""); len(got) != 0 {
		t.Fatalf("expected no tags, got %#v", got)
	}
}

func TestFileCreatedTime(t *testing.T) {
	f := File{CreatedAt: 1700000000123}
	if got := f.CreatedTime().UnixMilli(); got != 1700000000123 {
		t.Fatalf("expected millis roundtrip, got %d", got)
	}
}
