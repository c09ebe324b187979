package circle

import (
	"sort"
)

// topFandomLimit is how many fandoms Summarize ranks.
const topFandomLimit = 10

// Count is a label with the number of circles carrying it.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary describes a processed collection. It is informational only.
type Summary struct {
	Total           int         `json:"total"`
	Days            map[Day]int `json:"days"`
	Booths          int         `json:"booths"`
	WithURLs        int         `json:"with_urls"`
	WithFandoms     int         `json:"with_fandoms"`
	WithWorksTypes  int         `json:"with_works_types"`
	WithSampleworks int         `json:"with_sampleworks"`
	WithCircleCut   int         `json:"with_circle_cut"`
	WithCircleCode  int         `json:"with_circle_code"`
	URLTypes        []Count     `json:"url_types"`
	WorksTypes      []Count     `json:"works_types"`
	TopFandoms      []Count     `json:"top_fandoms"`
}

// tally counts labels and remembers the order they were first seen.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(label string) {
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

// inOrder lists counts in first-seen order.
func (t *tally) inOrder() []Count {
	out := make([]Count, 0, len(t.order))
	for _, label := range t.order {
		out = append(out, Count{Label: label, Count: t.counts[label]})
	}
	return out
}

// ranked lists counts from most to least frequent; ties keep first-seen
// order. limit <= 0 means no limit.
func (t *tally) ranked(limit int) []Count {
	out := t.inOrder()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summarize computes distribution counts over a collection.
func Summarize(circles []*Circle) *Summary {
	s := &Summary{
		Total: len(circles),
		Days:  make(map[Day]int),
	}

	urlTypes := newTally()
	worksTypes := newTally()
	fandoms := newTally()

	for _, c := range circles {
		s.Days[c.Day]++
		s.Booths += len(c.Booths)

		if len(c.URLs) > 0 {
			s.WithURLs++
			for _, link := range c.URLs {
				urlTypes.add(link.Title)
			}
		}
		if len(c.Fandoms) > 0 {
			s.WithFandoms++
			for _, f := range c.Fandoms {
				fandoms.add(f)
			}
		}
		if len(c.WorksType) > 0 {
			s.WithWorksTypes++
			for _, w := range c.WorksType {
				worksTypes.add(w)
			}
		}
		if len(c.SampleworksImages) > 0 {
			s.WithSampleworks++
		}
		if c.CircleCut != "" {
			s.WithCircleCut++
		}
		if c.CircleCode != "" {
			s.WithCircleCode++
		}
	}

	s.URLTypes = urlTypes.inOrder()
	s.WorksTypes = worksTypes.inOrder()
	s.TopFandoms = fandoms.ranked(topFandomLimit)
	return s
}
