package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "ten sentences keep two",
			text: "S1. S2. S3. S4. S5. S6. S7. S8. S9. S10.",
			want: "S1. S2.",
		},
		{
			name: "single sentence without terminator",
			text: "One sentence only",
			want: "One sentence only.",
		},
		{
			name: "fewer than five keeps one",
			text: "Alpha! Beta? Gamma... Delta",
			want: "Alpha.",
		},
		{
			name: "empty fragments are dropped",
			text: "First.. . Second!! Third?? Fourth. Fifth. Sixth. Seventh. Eighth. Ninth. Tenth. Eleventh.",
			want: "First. Second.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarize_NothingToSummarize(t *testing.T) {
	for _, text := range []string{"", "   ", "...!?"} {
		_, err := Summarize(text)
		assert.ErrorIs(t, err, ErrNothingToSummarize, "text %q", text)
	}
}

func TestSentences(t *testing.T) {
	assert.Equal(t, []string{"a b", "c"}, Sentences("  a b. c!  "))
	assert.Empty(t, Sentences(""))
}
