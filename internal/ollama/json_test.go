package ollama

import (
	"reflect"
	"testing"
)

func TestExtractJSONStrict(t *testing.T) {
	got := ExtractJSON(`{"isJobAd": true, "city": "Madrid"}`)
	want := map[string]any{"isJobAd": true, "city": "Madrid"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractJSON() = %v, want %v", got, want)
	}
}

func TestExtractJSONEmbedded(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{
			name: "prose around object",
			text: "Sure! Here is the result:\n{\"isJobAd\": false, \"reason\": \"meme\"}\nLet me know if you need more.",
			want: map[string]any{"isJobAd": false, "reason": "meme"},
		},
		{
			name: "markdown fence",
			text: "```json\n{\"isJobAd\": true}\n```",
			want: map[string]any{"isJobAd": true},
		},
		{
			name: "nested object one level",
			text: "result: {\"isJobAd\": true, \"contact\": {\"phone\": \"123\"}}",
			want: map[string]any{"isJobAd": true, "contact": map[string]any{"phone": "123"}},
		},
		{
			name: "first parsable candidate wins",
			text: "{broken {\"isJobAd\": true} trailing",
			want: map[string]any{"isJobAd": true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractJSON(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractJSONSentinel(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain prose", "I cannot help with that."},
		{"empty", ""},
		{"braces but invalid", "{not json at all}"},
		{"array only", `["a", "b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.text)
			raw, ok := Unparsable(got)
			if !ok {
				t.Fatalf("ExtractJSON(%q) = %v, want sentinel", tt.text, got)
			}
			if raw != tt.text {
				t.Errorf("sentinel raw = %q, want original input %q", raw, tt.text)
			}
		})
	}
}

func TestUnparsableRejectsNormalObjects(t *testing.T) {
	m := map[string]any{"error": "something else", "isJobAd": false}
	if _, ok := Unparsable(m); ok {
		t.Errorf("Unparsable(%v) = true, want false: error key holds a regular value", m)
	}
}
