package circle

import (
	"encoding/json"
	"strings"
)

// worksTypes maps the page's sell flags to display labels, in display order.
// "SellsCommision" is spelled the way the catalog spells it.
var worksTypes = []struct {
	flag  string
	label string
}{
	{"SellsCommision", "Commission"},
	{"SellsComic", "Comic"},
	{"SellsArtbook", "Artbook"},
	{"SellsPhotobookGeneral", "Photobook General"},
	{"SellsPhotobookCosplay", "Photobook Cosplay"},
	{"SellsNovel", "Novel"},
	{"SellsGame", "Game"},
	{"SellsMusic", "Music"},
	{"SellsGoods", "Goods"},
	{"SellsHandmadeCrafts", "Handmade Crafts"},
	{"SellsMagazine", "Magazine"},
}

// ExtractWorksTypes returns the labels of every sell flag set to true.
func ExtractWorksTypes(raw RawCircle) []string {
	out := make([]string, 0)
	for _, wt := range worksTypes {
		if raw.Bool(wt.flag) {
			out = append(out, wt.label)
		}
	}
	return out
}

// ExtractSampleworks returns the trimmed, non-blank sample image URLs.
// Anything other than a list yields an empty, non-nil slice.
func ExtractSampleworks(raw RawCircle) []string {
	images := make([]string, 0)

	items, ok := raw.List("sampleworks_images")
	if !ok {
		return images
	}

	for _, item := range items {
		if len(item) == 0 || item[0] != '"' {
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			images = append(images, s)
		}
	}
	return images
}

// ExtractCircleCut returns the trimmed circle cut image URL, or "".
func ExtractCircleCut(raw RawCircle) string {
	return strings.TrimSpace(raw.String("circle_cut"))
}

// ExtractCircleCode returns the trimmed circle code, or "".
func ExtractCircleCode(raw RawCircle) string {
	return strings.TrimSpace(raw.String("circle_code"))
}
