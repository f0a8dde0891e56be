package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name   string
		terms  []PromptTerm
		suffix string
		want   string
	}{
		{
			name:   "重み付き要素と suffix",
			terms:  []PromptTerm{{Text: "rust", Weight: 1.5}, {Text: "scratch", Weight: 15}},
			suffix: "macro photography",
			want:   "(rust:1.5), (scratch:15), macro photography",
		},
		{
			name:  "suffix なし",
			terms: []PromptTerm{{Text: "dent", Weight: 1}},
			want:  "(dent:1)",
		},
		{
			name:   "空の要素は無視する",
			terms:  []PromptTerm{{Text: " ", Weight: 2}, {Text: "crack", Weight: 1.2}},
			suffix: "  ",
			want:   "(crack:1.2)",
		},
		{
			name: "何もなければ空文字",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPrompt(tt.terms, tt.suffix))
		})
	}
}
