package canvas

import "testing"

func TestSelectorKeyRoundTrip(t *testing.T) {
	cases := []Selector{
		FolderSelector(""),
		FolderSelector("projects/work"),
		SearchSelector("meeting notes"),
		SearchSelector("path:with/colons: ok"),
		TagSelector("project-x"),
		CanvasSelector("b1f3"),
	}
	for _, sel := range cases {
		got, err := ParseKey(sel.Key())
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", sel.Key(), err)
		}
		if got != sel {
			t.Errorf("round trip %q: got %+v, want %+v", sel.Key(), got, sel)
		}
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "folder", "bogus:x", "search:", "tag:", "canvas:"} {
		if _, err := ParseKey(key); err == nil {
			t.Errorf("ParseKey(%q): expected error", key)
		}
	}
}

func TestSelectorDefaultTitle(t *testing.T) {
	cases := []struct {
		sel  Selector
		want string
	}{
		{FolderSelector(""), "Vault"},
		{FolderSelector("projects/work"), "work"},
		{SearchSelector("todo"), "Search: todo"},
		{TagSelector("inbox"), "#inbox"},
	}
	for _, c := range cases {
		if got := c.sel.DefaultTitle(); got != c.want {
			t.Errorf("DefaultTitle(%+v) = %q, want %q", c.sel, got, c.want)
		}
	}
}
