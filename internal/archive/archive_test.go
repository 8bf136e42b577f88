package archive

import (
	"strings"
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	name := ObjectName("statement.csv", now)
	if !strings.HasPrefix(name, "imports/2024/03/15/") {
		t.Errorf("name = %q, want date prefix", name)
	}
	if !strings.HasSuffix(name, "-statement.csv") {
		t.Errorf("name = %q, want original filename suffix", name)
	}

	// Path components in the user-supplied filename must not escape
	// the prefix.
	name = ObjectName("../../etc/passwd", now)
	if strings.Contains(name, "..") {
		t.Errorf("name = %q, traversal not stripped", name)
	}

	if name := ObjectName("", now); !strings.HasSuffix(name, "-upload.csv") {
		t.Errorf("empty filename -> %q, want fallback", name)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/imports/2024/03/15/a1b2c3d4-statement.csv", "statement.csv"},
		{"gs://bucket/plain.csv", "plain.csv"},
		{"not-a-uri", ""},
	}
	for _, tt := range tests {
		if got := Filename(tt.uri); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestSplitURI(t *testing.T) {
	bucket, object, err := splitURI("gs://my-bucket/path/to/file.csv")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "my-bucket" || object != "path/to/file.csv" {
		t.Errorf("got %q / %q", bucket, object)
	}

	for _, bad := range []string{"", "gs://", "gs://bucket", "gs://bucket/", "http://x/y"} {
		if _, _, err := splitURI(bad); err == nil {
			t.Errorf("splitURI(%q) should fail", bad)
		}
	}
}
