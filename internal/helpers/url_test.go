package helpers

import (
	"testing"
)

func TestExpandQuery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		template string
		query    string
		want     string
	}{
		{
			name:     "escapes spaces",
			template: "https://knowyourmeme.com/search?q={query}",
			query:    "gangnam style",
			want:     "https://knowyourmeme.com/search?q=gangnam+style",
		},
		{
			name:     "trims surrounding whitespace",
			template: "https://memepedia.ru/?s={query}",
			query:    "  doge ",
			want:     "https://memepedia.ru/?s=doge",
		},
		{
			name:     "escapes reserved characters",
			template: "https://example.com/search?q={query}",
			query:    "a&b",
			want:     "https://example.com/search?q=a%26b",
		},
		{
			name:     "template without placeholder unchanged",
			template: "https://example.com/search",
			query:    "doge",
			want:     "https://example.com/search",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandQuery(tt.template, tt.query); got != tt.want {
				t.Fatalf("ExpandQuery() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveHref(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		base     string
		href     string
		absolute bool
		want     string
		wantErr  bool
	}{
		{
			name: "relative href joined with base",
			base: "https://knowyourmeme.com",
			href: "/memes/rickroll",
			want: "https://knowyourmeme.com/memes/rickroll",
		},
		{
			name:     "absolute href passed through",
			base:     "https://memepedia.ru",
			href:     "https://memepedia.ru/doge",
			absolute: true,
			want:     "https://memepedia.ru/doge",
		},
		{
			name:     "relative href rejected when absolute expected",
			base:     "https://memepedia.ru",
			href:     "/doge",
			absolute: true,
			wantErr:  true,
		},
		{
			name:    "empty href rejected",
			base:    "https://knowyourmeme.com",
			href:    "  ",
			wantErr: true,
		},
		{
			name:    "relative base rejected",
			base:    "knowyourmeme.com",
			href:    "/memes/rickroll",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveHref(tt.base, tt.href, tt.absolute)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveHref() expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveHref() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ResolveHref() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := Truncate("short", 10, "..."); got != "short" {
		t.Fatalf("Truncate() got %q, want unchanged input", got)
	}
	if got := Truncate("abcdefgh", 5, "..."); got != "abcde..." {
		t.Fatalf("Truncate() got %q, want %q", got, "abcde...")
	}
	// Rune-based counting: Cyrillic characters are multi-byte.
	if got := Truncate("мемология", 3, "..."); got != "мем..." {
		t.Fatalf("Truncate() got %q, want %q", got, "мем...")
	}
}
