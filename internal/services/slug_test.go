package services

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"  Go   is\tfun  ", "go-is-fun"},
		{"Çalışma Günlüğü: Şöyle", "calisma-gunlugu-soyle"},
		{"İstanbul", "istanbul"},
		{"Crème brûlée à la carte", "creme-brulee-a-la-carte"},
		{"already--hyphenated -- title", "already-hyphenated-title"},
		{"日本語", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			qt.Assert(t, Slugify(tt.title), qt.Equals, tt.want)
		})
	}
}

func TestReadTime(t *testing.T) {
	c := qt.New(t)
	c.Assert(ReadTime(""), qt.Equals, 1)
	c.Assert(ReadTime("one two three"), qt.Equals, 1)
	c.Assert(ReadTime(strings.Repeat("word ", 200)), qt.Equals, 1)
	c.Assert(ReadTime(strings.Repeat("word ", 201)), qt.Equals, 2)
	c.Assert(ReadTime(strings.Repeat("word\n", 1000)), qt.Equals, 5)
}
