package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Vývojář", "vyvojar"},
		{"Senior Go Developer", "senior go developer"},
		{"ŽLUŤOUČKÝ kůň", "zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in))
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"java, spring!", "java spring"},
		{"c++ developer", "c developer"},
		{"  part-time   praha ", "part-time praha"},
		{"%;'\"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in))
	}
}

func TestContainsWholeToken(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		token    string
		want     bool
	}{
		{"token between spaces", "senior go developer", "go", true},
		{"token inside longer word", "logistika team", "go", false},
		{"token at start", "go developer", "go", true},
		{"token at end", "learn go", "go", true},
		{"diacritics folded", "vývojář Java", "vyvojar", true},
		{"punctuation boundary", "java/kotlin dev", "java", true},
		{"empty token", "anything", "", false},
		{"digit boundary blocks match", "go2web team", "go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsWholeToken(tt.haystack, tt.token))
		})
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"vyvojar", "c", "praha"}, Tokens("Vývojář C#, Praha"))
	assert.Empty(t, Tokens("  !! "))
}
