package circle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []Link
	}{
		{
			name: "no link fields",
			doc:  `{"name": "Nothing"}`,
			want: []Link{},
		},
		{
			name: "instagram handle expanded",
			doc:  `{"circle_instagram": "@kiwi.art"}`,
			want: []Link{{Title: "Instagram", URL: "https://instagram.com/kiwi.art"}},
		},
		{
			name: "twitter handle expanded to x.com",
			doc:  `{"circle_twitter": "@kiwi.art"}`,
			want: []Link{{Title: "Twitter", URL: "https://x.com/kiwi.art"}},
		},
		{
			name: "facebook handle dropped",
			doc:  `{"circle_facebook": "@kiwi.art"}`,
			want: []Link{},
		},
		{
			name: "other socials handle dropped",
			doc:  `{"circle_other_socials": "@kiwi.art"}`,
			want: []Link{},
		},
		{
			name: "several instagram links are numbered",
			doc:  `{"circle_instagram": "instagram.com/kiwi, instagram.com/kiwi_alt"}`,
			want: []Link{
				{Title: "Instagram 1", URL: "https://instagram.com/kiwi"},
				{Title: "Instagram 2", URL: "https://instagram.com/kiwi_alt"},
			},
		},
		{
			name: "marketplace is one link",
			doc:  `{"marketplace_link": " tokopedia.com/kiwi "}`,
			want: []Link{{Title: "Marketplace", URL: "https://tokopedia.com/kiwi"}},
		},
		{
			name: "marketplace placeholder ignored",
			doc:  `{"marketplace_link": "-"}`,
			want: []Link{},
		},
		{
			name: "bare platform path gets a scheme",
			doc:  `{"circle_twitter": "x.com/kiwi"}`,
			want: []Link{{Title: "Twitter", URL: "https://x.com/kiwi"}},
		},
		{
			name: "scheme kept as written",
			doc:  `{"circle_facebook": "HTTPS://facebook.com/kiwi"}`,
			want: []Link{{Title: "Facebook", URL: "HTTPS://facebook.com/kiwi"}},
		},
		{
			name: "other socials labeled by platform",
			doc:  `{"circle_other_socials": "https://youtube.com/@kiwi https://kiwi.carrd.co"}`,
			want: []Link{
				{Title: "YouTube 1", URL: "https://youtube.com/@kiwi"},
				{Title: "Carrd 2", URL: "https://kiwi.carrd.co"},
			},
		},
		{
			name: "single other social unnumbered",
			doc:  `{"circle_other_socials": "www.kiwiart.com"}`,
			want: []Link{{Title: "Website", URL: "https://www.kiwiart.com"}},
		},
		{
			name: "not a url dropped",
			doc:  `{"circle_facebook": "Kiwi Art Studio"}`,
			want: []Link{},
		},
		{
			name: "too short dropped",
			doc:  `{"circle_facebook": "http://a"}`,
			want: []Link{},
		},
		{
			name: "non-string field ignored",
			doc:  `{"circle_facebook": 12345}`,
			want: []Link{},
		},
		{
			name: "fields in fixed order",
			doc: `{
				"circle_other_socials": "https://ko.fi.example.org",
				"circle_twitter": "@kiwi",
				"circle_instagram": "@kiwi",
				"circle_facebook": "facebook.com/kiwi",
				"marketplace_link": "https://shop.example.com"
			}`,
			want: []Link{
				{Title: "Marketplace", URL: "https://shop.example.com"},
				{Title: "Facebook", URL: "https://facebook.com/kiwi"},
				{Title: "Instagram", URL: "https://instagram.com/kiwi"},
				{Title: "Twitter", URL: "https://x.com/kiwi"},
				{Title: "Other", URL: "https://ko.fi.example.org"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractURLs(rawCircle(t, tt.doc))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractURLs_NeverEmitsInvalidURL(t *testing.T) {
	messy := []string{
		"-",
		" - , - ",
		"null",
		"@",
		"a.b",
		"http://ab",
		"   ,,, --- ",
		"https://ko-fi.com/kiwi",
		"kiwi - @kiwi - kiwi.com",
		"www.",
		"instagram.com/",
	}

	fields := []string{"marketplace_link", "circle_facebook", "circle_instagram", "circle_twitter", "circle_other_socials"}
	for _, value := range messy {
		for _, field := range fields {
			raw := RawCircle{}
			raw[field] = []byte(mustJSON(t, value))

			for _, link := range ExtractURLs(raw) {
				assert.NotEmpty(t, link.URL, "field %s value %q", field, value)
				assert.NotEqual(t, "-", link.URL, "field %s value %q", field, value)
				assert.True(t, strings.Contains(link.URL, "."), "field %s value %q produced %q", field, value, link.URL)
				assert.GreaterOrEqual(t, len(link.URL), minURLLength)
			}
		}
	}
}

func TestRepairURL(t *testing.T) {
	instagram := urlSources[2]
	other := urlSources[4]

	tests := []struct {
		name  string
		token string
		src   urlSource
		want  string
	}{
		{"keeps http", "http://example.com", other, "http://example.com"},
		{"bare www", "www.example.id", other, "https://www.example.id"},
		{"bare net", "example.net/path", other, "https://example.net/path"},
		{"tiktok path", "tiktok.com/@kiwi", other, "https://tiktok.com/@kiwi"},
		{"handle on instagram", "@kiwi", instagram, "https://instagram.com/kiwi"},
		{"empty handle", "@", instagram, ""},
		{"handle elsewhere", "@kiwi", other, ""},
		{"null literal", "null", other, ""},
		{"no dot after repair", "https://localhost", other, ""},
		{"unknown tld without scheme", "kiwi.co.id", other, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairURL(tt.token, tt.src))
		})
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/c/kiwi", "YouTube"},
		{"https://youtu.be/abc123", "YouTube"},
		{"https://www.tiktok.com/@kiwi", "TikTok"},
		{"https://twitch.tv/kiwi", "Twitch"},
		{"https://kiwi.carrd.co", "Carrd"},
		{"https://linktr.ee/kiwi", "Linktree"},
		{"https://ko-fi.com/kiwi", "Ko-fi"},
		{"https://www.patreon.com/kiwi", "Patreon"},
		{"https://www.pixiv.net/users/1", "Pixiv"},
		{"https://kiwi.deviantart.com", "DeviantArt"},
		{"https://www.artstation.com/kiwi", "ArtStation"},
		{"https://kiwi.tumblr.com", "Tumblr"},
		{"https://reddit.com/u/kiwi", "Reddit"},
		{"https://discord.gg/abc", "Discord"},
		{"https://github.com/kiwi", "GitHub"},
		{"https://kiwi.wixsite.com/art", "Portfolio"},
		{"https://kiwi.myportfolio.com", "Portfolio"},
		{"https://kiwiart.com", "Website"},
		{"https://www.kiwiart.id", "Website"},
		{"HTTPS://KIWIART.DEV", "Website"},
		{"https://kiwiart.com/about", "Other"},
		{"https://kiwi.example.xyz", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.url))
		})
	}
}
