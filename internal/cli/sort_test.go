package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pfrederiksen/circle-catalog/internal/circle"
)

func TestSortedDays(t *testing.T) {
	days := map[circle.Day]int{
		circle.DayBoth:     4,
		"FRI":              1,
		circle.DaySunday:   2,
		circle.DaySaturday: 3,
		"":                 1,
	}

	assert.Equal(t, []circle.Day{circle.DaySaturday, circle.DaySunday, circle.DayBoth, "", "FRI"}, sortedDays(days))
}

func TestSortIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{"numeric order", []string{"10", "9", "100"}, []string{"9", "10", "100"}},
		{"numbers before strings", []string{"b-2", "3", "a-1"}, []string{"3", "a-1", "b-2"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]string(nil), tt.ids...)
			got := sortIDs(tt.ids)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, in, tt.ids, "input must not be reordered")
		})
	}
}
