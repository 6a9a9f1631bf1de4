package labels

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Granny_Smith", "granny smith"},
		{"banana", "banana"},
		{"  Bell_Pepper ", "bell pepper"},
		{"custard__apple", "custard apple"},
		{"Hot-Dog", "hot dog"},
		{"ORANGE", "orange"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Resolve(tc.raw), "Resolve(%q)", tc.raw)
	}
}

func TestResolve_UnderscoredLabelsAreCleanQueries(t *testing.T) {
	for _, raw := range []string{"Granny_Smith", "_pineapple_", "Pomegranate_Seed_Mix", "a_B_c"} {
		got := Resolve(raw)
		assert.NotContains(t, got, "_")
		assert.Equal(t, strings.ToLower(got), got)
		assert.Equal(t, strings.TrimSpace(got), got)
	}
}
