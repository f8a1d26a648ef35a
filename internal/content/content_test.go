package content

import (
	"strings"
	"testing"
)

func TestConverterToText(t *testing.T) {
	converter := NewConverter()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Single paragraph",
			input:    "<p>Hi</p>",
			expected: "Hi\n\n",
		},
		{
			name:     "Two paragraphs",
			input:    "<p>first</p><p>second</p>",
			expected: "first\n\nsecond\n\n",
		},
		{
			name:     "Empty content",
			input:    "",
			expected: "",
		},
		{
			name:     "Whitespace only",
			input:    "   \n ",
			expected: "",
		},
		{
			name:     "Mention becomes plain text",
			input:    `<p><span class="h-card"><a href="https://example.social/@bob" class="u-url mention">@<span>bob</span></a></span> hello</p>`,
			expected: "@bob hello\n\n",
		},
		{
			name:     "Hashtag becomes plain text",
			input:    `<p>tagged <a href="https://example.social/tags/golang" class="mention hashtag" rel="tag">#<span>golang</span></a></p>`,
			expected: "tagged #golang\n\n",
		},
		{
			name:     "Shortened URL link keeps the full URL",
			input:    `<p><a href="https://example.com/a/long/path"><span class="invisible">https://</span><span class="ellipsis">example.com/a/lo</span><span class="invisible">ng/path</span></a></p>`,
			expected: "https://example.com/a/long/path\n\n",
		},
		{
			name:     "Named link keeps markdown form",
			input:    `<p><a href="https://example.org">the site</a></p>`,
			expected: "[the site](https://example.org)\n\n",
		},
		{
			name:     "Markdown characters are not escaped",
			input:    "<p>snake_case and 2 * 3</p>",
			expected: "snake_case and 2 * 3\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := converter.ToText(tt.input)
			if err != nil {
				t.Fatalf("ToText() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ToText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConverterLineBreaks(t *testing.T) {
	converter := NewConverter()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Single break inside a paragraph",
			input:    "<p>line one<br>line two</p>",
			expected: "line one\nline two\n\n",
		},
		{
			name:     "Break followed by another paragraph",
			input:    "<p>line one<br>line two</p><p>next</p>",
			expected: "line one\nline two\n\nnext\n\n",
		},
		{
			name:     "Self-closing breaks",
			input:    "<p>a<br/>b<br />c</p>",
			expected: "a\nb\nc\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := converter.ToText(tt.input)
			if err != nil {
				t.Fatalf("ToText() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ToText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if strings.Contains(got, " \n") {
				t.Errorf("Trailing spaces should be stripped, got %q", got)
			}
		})
	}
}

func TestConverterIsDeterministic(t *testing.T) {
	converter := NewConverter()
	input := `<p>Hello <a href="https://example.social/@amy" class="u-url mention">@<span>amy</span></a></p><p>Second <strong>bold</strong> line</p>`

	first, err := converter.ToText(input)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		again, err := NewConverter().ToText(input)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("Conversion %d = %q, want %q", i, again, first)
		}
	}
}

func TestProcessorCompose(t *testing.T) {
	processor := NewProcessor()

	tests := []struct {
		name      string
		published string
		html      string
		expected  string
		wantErr   bool
	}{
		{
			name:      "Paragraph",
			published: "2020-01-01",
			html:      "<p>Hi</p>",
			expected:  "[2020-01-01]\nHi\n\n",
		},
		{
			name:      "Media-only toot",
			published: "2021-05-04T10:00:00Z",
			html:      "",
			expected:  "[2021-05-04T10:00:00Z]\n",
		},
		{
			name:      "Missing timestamp",
			published: "  ",
			html:      "<p>Hi</p>",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := processor.Compose(tt.published, tt.html)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Compose() = %q, want %q", got, tt.expected)
			}
		})
	}
}
