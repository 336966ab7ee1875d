package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Running Shoes", "running-shoes"},
		{"Hello   World!", "hello-world"},
		{"  Industrial Pumps & Valves  ", "industrial-pumps-valves"},
		{"LED TVs (55 inch)", "led-tvs-55-inch"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Generate(tc.in), "Generate(%q)", tc.in)
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"televisions", "running-shoes", "led-tvs-55-inch", "a1"}
	for _, s := range valid {
		assert.True(t, IsValid(s), "IsValid(%q)", s)
	}

	invalid := []string{"", "Televisions", "tv category", "a/../b", "x;drop", "café"}
	for _, s := range invalid {
		assert.False(t, IsValid(s), "IsValid(%q)", s)
	}
}
