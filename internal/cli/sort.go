package cli

import (
	"sort"
	"strconv"

	"github.com/pfrederiksen/circle-catalog/internal/circle"
)

// dayRank orders the known days; unknown values sort after them.
var dayRank = map[circle.Day]int{
	circle.DaySaturday: 0,
	circle.DaySunday:   1,
	circle.DayBoth:     2,
}

// sortedDays returns the keys of days with SAT, SUN and BOTH first and any
// other value after them alphabetically.
func sortedDays(days map[circle.Day]int) []circle.Day {
	out := make([]circle.Day, 0, len(days))
	for day := range days {
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := dayRank[out[i]]
		rj, jok := dayRank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// sortIDs returns a sorted copy of ids. Numeric ids come first in numeric
// order, then the rest as strings.
func sortIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return compareIDs(out[i], out[j])
	})
	return out
}

func compareIDs(a, b string) bool {
	na, aerr := strconv.ParseFloat(a, 64)
	nb, berr := strconv.ParseFloat(b, 64)

	switch {
	case aerr == nil && berr == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}
