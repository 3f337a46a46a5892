package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeDocumentDeterministic(t *testing.T) {
	for _, leadID := range []int64{1, 42, 4021, 999_999_999, 7_000_000_123} {
		first := SynthesizeDocument(leadID)
		second := SynthesizeDocument(leadID)
		assert.Equal(t, first, second, "lead %d", leadID)
		assert.Len(t, first, 11)
		assert.True(t, ValidDocument(first), "lead %d produced invalid document %s", leadID, first)
	}
}

func TestSynthesizeDocumentDistinctForNearbyIDs(t *testing.T) {
	a := SynthesizeDocument(4021)
	b := SynthesizeDocument(4022)
	assert.NotEqual(t, a, b)
}

func TestValidDocument(t *testing.T) {
	tests := []struct {
		doc  string
		want bool
	}{
		{"529.982.247-25", true},
		{"52998224725", true},
		{"52998224724", false}, // wrong check digit
		{"11111111111", false}, // repeated digits
		{"5299822472", false},  // too short
		{"", false},
		{"abc.def.ghi-jk", false},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDocument(tt.doc))
		})
	}
}
