package formatter

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	got := EscapeMarkdownV2("post_1 failed (status 502)!")
	want := `post\_1 failed \(status 502\)\!`
	if got != want {
		t.Fatalf("EscapeMarkdownV2 = %q, want %q", got, want)
	}
}

func TestHead(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo wörld", 4, "héll"},
		{"abc", 0, ""},
	}
	for _, c := range cases {
		if got := Head(c.in, c.n); got != c.want {
			t.Fatalf("Head(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("launch day", 6); got != "launch..." {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("short", 6); got != "short" {
		t.Fatalf("Truncate = %q", got)
	}
}
