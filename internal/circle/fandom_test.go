package circle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFandoms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single", "Genshin Impact", []string{"Genshin Impact"}},
		{"trims parts", "  Genshin Impact ,  Blue Archive ", []string{"Genshin Impact", "Blue Archive"}},
		{"commas inside parentheses kept", "Series (A, B), Other", []string{"Series (A, B)", "Other"}},
		{"nested parentheses", "X (Y (1, 2), Z), W", []string{"X (Y (1, 2), Z)", "W"}},
		{"unbalanced closing paren", "A), B", []string{"A)", "B"}},
		{"unclosed paren swallows rest", "A (B, C", []string{"A (B, C"}},
		{"empty parts dropped", "A,, ,B,", []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitFandoms(tt.text))
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"genshin impact", "Genshin Impact"},
		{"BLUE ARCHIVE", "Blue Archive"},
		{"blue archive (aris, yuuka)", "Blue Archive (aris, Yuuka)"},
		{"double  space", "Double  Space"},
		{"élan vital", "Élan Vital"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleCase(tt.in))
		})
	}
}

func TestFandomNormalizer_Normalize(t *testing.T) {
	mapping := FandomMapping{
		"genshin impact": {"Genshin Impact"},
		"gi":             {"Genshin Impact"},
		"honkai":         {"Honkai Impact", "Honkai Star Rail"},
		"hsr":            {"Honkai Star Rail"},
		"blank":          {"", "  "},
	}
	n := NewFandomNormalizer(mapping)

	tests := []struct {
		name      string
		main      string
		other     string
		wantRaw   []string
		wantCanon []string
	}{
		{
			name:      "empty fields",
			wantRaw:   []string{},
			wantCanon: []string{},
		},
		{
			name:      "one key to many tags",
			main:      "honkai, genshin impact",
			wantRaw:   []string{"Honkai", "Genshin Impact"},
			wantCanon: []string{"Genshin Impact", "Honkai Impact", "Honkai Star Rail"},
		},
		{
			name:      "aliases collapse",
			main:      "GI",
			other:     "genshin impact, hsr, honkai",
			wantRaw:   []string{"Gi", "Genshin Impact", "Hsr", "Honkai"},
			wantCanon: []string{"Genshin Impact", "Honkai Impact", "Honkai Star Rail"},
		},
		{
			name:      "placeholders dropped",
			main:      "-, Original, etc",
			other:     "ETC.",
			wantRaw:   []string{"Original"},
			wantCanon: []string{"Original"},
		},
		{
			name:      "duplicates across fields",
			main:      "original",
			other:     "ORIGINAL",
			wantRaw:   []string{"Original"},
			wantCanon: []string{"Original"},
		},
		{
			name:      "blank mapped tags dropped",
			main:      "blank, Original",
			wantRaw:   []string{"Blank", "Original"},
			wantCanon: []string{"Original"},
		},
		{
			name:      "unmapped passes through",
			main:      "blue archive (aris, yuuka)",
			wantRaw:   []string{"Blue Archive (aris, Yuuka)"},
			wantCanon: []string{"Blue Archive (aris, Yuuka)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.main, tt.other)
			assert.Equal(t, tt.wantRaw, got.Raw)
			assert.Equal(t, tt.wantCanon, got.Canonical)
		})
	}
}

func TestFandomNormalizer_SortIgnoresCaseAndAccents(t *testing.T) {
	mapping := FandomMapping{
		"x": {"beta", "Zeta", "Alpha"},
		"y": {"Emily", "Émile"},
	}
	n := NewFandomNormalizer(mapping)

	assert.Equal(t, []string{"Alpha", "beta", "Zeta"}, n.Normalize("x", "").Canonical)
	assert.Equal(t, []string{"Émile", "Emily"}, n.Normalize("y", "").Canonical)
}

func TestFandomNormalizer_Idempotent(t *testing.T) {
	mapping := FandomMapping{
		"gi":   {"Genshin Impact"},
		"hsr":  {"Honkai: Star Rail"},
		"jjba": {"JoJo's Bizarre Adventure"},
		"hoyo": {"HoYoverse", "Genshin Impact"},
	}
	n := NewFandomNormalizer(mapping)

	tests := []struct {
		name  string
		main  string
		other string
		want  []string
	}{
		{"title case tags", "gi, hsr", "Blue Archive", []string{"Blue Archive", "Genshin Impact", "Honkai: Star Rail"}},
		{"mixed case tags", "jjba", "hsr", []string{"Honkai: Star Rail", "JoJo's Bizarre Adventure"}},
		{"one key to several tags", "hoyo", "", []string{"Genshin Impact", "HoYoverse"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := n.Normalize(tt.main, tt.other)
			require.Equal(t, tt.want, first.Canonical)

			second := n.Normalize(strings.Join(first.Canonical, ", "), "")
			assert.Equal(t, first.Canonical, second.Canonical)
		})
	}
}

func TestFandomNormalizer_CanonicalSpellingWins(t *testing.T) {
	n := NewFandomNormalizer(FandomMapping{"jjba": {"JoJo's Bizarre Adventure"}})

	got := n.Normalize("JOJO'S BIZARRE ADVENTURE", "")

	assert.Equal(t, []string{"Jojo's Bizarre Adventure"}, got.Raw)
	assert.Equal(t, []string{"JoJo's Bizarre Adventure"}, got.Canonical)
}

func TestFandomNormalizer_NilMapping(t *testing.T) {
	n := NewFandomNormalizer(nil)

	got := n.Normalize("genshin impact, GI", "")

	assert.Equal(t, []string{"Genshin Impact", "Gi"}, got.Raw)
	assert.Equal(t, []string{"Genshin Impact", "Gi"}, got.Canonical)
}
