package postfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlurSchedule(t *testing.T) {
	tests := []struct {
		name string
		text string
		want BlurSchedule
	}{
		{name: "default", text: "1 2 3 4", want: BlurSchedule{1, 2, 3, 4}},
		{name: "extra whitespace", text: "  0.5\t2\n8 ", want: BlurSchedule{0.5, 2, 8}},
		{name: "negative and zero", text: "-1 0", want: BlurSchedule{-1, 0}},
		{name: "empty", text: "", want: BlurSchedule{}},
		{name: "blank", text: "   ", want: BlurSchedule{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBlurSchedule(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBlurScheduleRejectsBadTokens(t *testing.T) {
	for _, text := range []string{"1 x 3", "NaN", "1 inf", "2,3"} {
		_, err := ParseBlurSchedule(text)
		assert.ErrorIs(t, err, ErrInvalidBlurRadius, text)
	}

	_, err := ParseBlurSchedule("1 x 3")
	assert.Contains(t, err.Error(), `"x"`)
}

func TestBlurScheduleText(t *testing.T) {
	var s BlurSchedule
	require.NoError(t, s.UnmarshalText([]byte("1 2.5 4")))
	assert.Equal(t, BlurSchedule{1, 2.5, 4}, s)
	assert.Equal(t, "1 2.5 4", s.String())

	require.Error(t, s.UnmarshalText([]byte("oops")))
	assert.Equal(t, BlurSchedule{1, 2.5, 4}, s, "failed unmarshal leaves the value alone")

	assert.Equal(t, BlurSchedule{1, 2, 3, 4}, DefaultBlurSchedule())
}
