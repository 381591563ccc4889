package tokenizer

import (
	"reflect"
	"sort"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "case folding and dedup",
			text: "A a AA",
			want: []string{"aa"},
		},
		{
			name: "drops single characters",
			text: "a b go run 1 go",
			want: []string{"go", "run"},
		},
		{
			name: "splits on punctuation",
			text: "fix: memory-leak in pool.Get()",
			want: []string{"fix", "memory", "leak", "in", "pool", "get"},
		},
		{
			name: "keeps underscores and digits",
			text: "ERRNO_13 retry_count utf8",
			want: []string{"errno_13", "retry_count", "utf8"},
		},
		{
			name: "cjk runs tokenize as ideograph sequences",
			text: "修复内存泄漏 memory leak",
			want: []string{"修复内存泄漏", "memory", "leak"},
		},
		{
			// Single ideographs fall below the two-character floor, the
			// same floor applied to Latin text. Intentional: length is
			// counted in runes, not bytes.
			name: "single cjk character dropped",
			text: "好 不错",
			want: []string{"不错"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "only noise",
			text: "a 1 ! ?",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	text := "Database connection TIMEOUT after 30s, timeout in pool"
	first := Tokenize(text)
	second := Tokenize(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Tokenize not deterministic: %v vs %v", first, second)
	}
}

func TestTokenizeOrderIndependentAsSet(t *testing.T) {
	a := Tokenize("memory leak in pool")
	b := Tokenize("pool in leak memory")
	sort.Strings(a)
	sort.Strings(b)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("term sets differ: %v vs %v", a, b)
	}
}
