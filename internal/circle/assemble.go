package circle

import (
	"strings"
)

// NormalizeDay maps free-text day information to SAT, SUN or BOTH. Text
// mentioning both days, neither day, or nothing at all means BOTH.
func NormalizeDay(day string) Day {
	upper := strings.ToUpper(day)
	sat := strings.Contains(upper, "SAT")
	sun := strings.Contains(upper, "SUN")

	switch {
	case sat && !sun:
		return DaySaturday
	case sun && !sat:
		return DaySunday
	default:
		return DayBoth
	}
}

// Assembler builds canonical records from raw page entries.
type Assembler struct {
	fandoms *FandomNormalizer
}

// NewAssembler returns an Assembler that canonicalizes fandoms with mapping.
func NewAssembler(mapping FandomMapping) *Assembler {
	return &Assembler{fandoms: NewFandomNormalizer(mapping)}
}

// Assemble converts one raw entry. Optional fields are left empty, and so
// omitted from JSON, when their extractor finds nothing.
func (a *Assembler) Assemble(raw RawCircle) *Circle {
	fandoms := a.fandoms.Normalize(raw.String("fandom"), raw.String("other_fandom"))

	c := &Circle{
		ID:                raw.Raw("id"),
		UserID:            raw.Raw("user_id"),
		Name:              raw.String("name"),
		Booths:            dedupe(ParseBoothCodes(raw.String("circle_code"))),
		Day:               NormalizeDay(raw.String("day")),
		SampleworksImages: ExtractSampleworks(raw),
		CircleCut:         ExtractCircleCut(raw),
		CircleCode:        ExtractCircleCode(raw),
	}

	if urls := ExtractURLs(raw); len(urls) > 0 {
		c.URLs = urls
	}
	if len(fandoms.Raw) > 0 {
		c.RawFandoms = fandoms.Raw
	}
	if len(fandoms.Canonical) > 0 {
		c.Fandoms = fandoms.Canonical
	}
	if works := ExtractWorksTypes(raw); len(works) > 0 {
		c.WorksType = works
	}

	return c
}

// AssembleAll converts every entry of the page listing, in page order.
// The second result is false when the page state has no circle listing.
func (a *Assembler) AssembleAll(state *PageState) ([]*Circle, bool) {
	raws, ok := state.Circles()
	circles := make([]*Circle, 0, len(raws))
	for _, raw := range raws {
		circles = append(circles, a.Assemble(raw))
	}
	return circles, ok
}
