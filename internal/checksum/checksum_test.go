package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("<p>hello</p>"))
	b := Sum([]byte("<p>hello</p>"))
	if a != b {
		t.Errorf("Sum not stable: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if a == Sum([]byte("<p>bye</p>")) {
		t.Error("different content produced same digest")
	}
}

func TestETag(t *testing.T) {
	tag := ETag([]byte("x"))
	if len(tag) != 18 || tag[0] != '"' || tag[17] != '"' {
		t.Errorf("ETag = %q", tag)
	}
}
