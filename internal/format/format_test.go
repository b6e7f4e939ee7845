package format

import (
	"bytes"
	"testing"
)

func TestSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
		{250 << 20, "250 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tc := range cases {
		if got := Size(tc.in); got != tc.want {
			t.Fatalf("Size(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMillis(t *testing.T) {
	if got := Millis(0); got != "" {
		t.Fatalf("expected empty for zero, got %q", got)
	}
	if got := Millis(1700000000000); got != "2023-11-14 22:13" {
		t.Fatalf("unexpected timestamp %q", got)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "{\"a\":1}\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
