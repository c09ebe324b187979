package circle

import (
	"fmt"
	"regexp"
	"strings"
)

// urlSource describes one raw link field and how its values are labeled.
type urlSource struct {
	key   string
	title string
	// split marks fields that may hold several links.
	split bool
	// handleBase expands "@name" tokens; empty means handles are dropped.
	handleBase string
	// infer labels each link by platform instead of by title.
	infer bool
}

// urlSources is in output order.
var urlSources = []urlSource{
	{key: "marketplace_link", title: "Marketplace"},
	{key: "circle_facebook", title: "Facebook", split: true},
	{key: "circle_instagram", title: "Instagram", split: true, handleBase: "https://instagram.com/"},
	{key: "circle_twitter", title: "Twitter", split: true, handleBase: "https://x.com/"},
	{key: "circle_other_socials", title: "Other", split: true, infer: true},
}

var urlSeparatorPattern = regexp.MustCompile(`[,\-\s]+`)

// minURLLength is the shortest string accepted as a plausible URL.
const minURLLength = 10

// repairRule rewrites a token into a URL. Rules are tried in order and the
// first whose match returns true decides; apply returns "" to reject.
type repairRule struct {
	name  string
	match func(token string, src urlSource) bool
	apply func(token string, src urlSource) string
}

var platformPathPrefixes = []string{
	"x.com/",
	"twitter.com/",
	"instagram.com/",
	"facebook.com/",
	"youtube.com/",
	"tiktok.com/",
}

var repairRules = []repairRule{
	{
		name: "scheme",
		match: func(token string, _ urlSource) bool {
			lower := strings.ToLower(token)
			return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
		},
		apply: func(token string, _ urlSource) string { return token },
	},
	{
		name: "bare domain",
		match: func(token string, _ urlSource) bool {
			return strings.Contains(token, ".") && containsAny(token, "www.", ".com", ".net", ".org")
		},
		apply: withHTTPS,
	},
	{
		name: "platform path",
		match: func(token string, _ urlSource) bool {
			for _, p := range platformPathPrefixes {
				if strings.HasPrefix(token, p) {
					return true
				}
			}
			return false
		},
		apply: withHTTPS,
	},
	{
		name:  "handle",
		match: func(token string, _ urlSource) bool { return strings.HasPrefix(token, "@") },
		apply: func(token string, src urlSource) string {
			handle := strings.TrimPrefix(token, "@")
			if src.handleBase == "" || handle == "" {
				return ""
			}
			return src.handleBase + handle
		},
	},
}

func withHTTPS(token string, _ urlSource) string {
	return "https://" + token
}

// repairURL turns a raw token into a URL, or returns "" when the token is
// not usable.
func repairURL(token string, src urlSource) string {
	token = strings.TrimSpace(token)
	if token == "" || token == "-" || token == "null" {
		return ""
	}

	fixed := ""
	for _, rule := range repairRules {
		if rule.match(token, src) {
			fixed = rule.apply(token, src)
			break
		}
	}

	if fixed == "" || !strings.Contains(fixed, ".") || len(fixed) < minURLLength {
		return ""
	}
	return fixed
}

// parseURLs splits a raw field into repaired URLs, in source order.
func parseURLs(value string, src urlSource) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	tokens := []string{value}
	if src.split {
		tokens = urlSeparatorPattern.Split(value, -1)
	}

	var urls []string
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" || token == "-" {
			continue
		}
		if u := repairURL(token, src); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// ExtractURLs collects the marketplace link and social links of a circle.
// A field with several links numbers its titles ("Instagram 1",
// "Instagram 2"); links from the free-text socials field are labeled by
// platform.
func ExtractURLs(raw RawCircle) []Link {
	links := make([]Link, 0)

	for _, src := range urlSources {
		urls := parseURLs(raw.String(src.key), src)
		for i, u := range urls {
			title := src.title
			if src.infer {
				title = DetectPlatform(u)
			}
			if len(urls) > 1 {
				title = fmt.Sprintf("%s %d", title, i+1)
			}
			links = append(links, Link{Title: title, URL: u})
		}
	}

	return links
}

// platformRule labels a lower-cased URL.
type platformRule struct {
	label string
	match func(lower string) bool
}

var websitePattern = regexp.MustCompile(`^https?://(www\.)?[a-zA-Z0-9-]+\.(com|net|org|id|co|io|me|dev)$`)

// platformRules is checked top to bottom; the first match wins.
var platformRules = []platformRule{
	{"YouTube", hostContains("youtube.com", "youtu.be")},
	{"TikTok", hostContains("tiktok.com")},
	{"Twitch", hostContains("twitch.tv")},
	{"Carrd", hostContains("carrd.co")},
	{"Linktree", hostContains("linktr.ee")},
	{"Ko-fi", hostContains("ko-fi.com")},
	{"Patreon", hostContains("patreon.com")},
	{"Pixiv", hostContains("pixiv.net")},
	{"DeviantArt", hostContains("deviantart.com", "deviantart.net")},
	{"ArtStation", hostContains("artstation.com")},
	{"Tumblr", hostContains("tumblr.com")},
	{"Reddit", hostContains("reddit.com")},
	{"Discord", hostContains("discord.gg", "discord.com")},
	{"GitHub", hostContains("github.com")},
	{"Portfolio", hostContains(
		".myportfolio.com",
		".portfolio.com",
		".wixsite.com",
		".squarespace.com",
		".weebly.com",
		".wordpress.com",
		".blogspot.com",
	)},
	{"Website", websitePattern.MatchString},
}

func hostContains(needles ...string) func(string) bool {
	return func(lower string) bool {
		return containsAny(lower, needles...)
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// DetectPlatform names the platform a URL points at, falling back to
// "Other".
func DetectPlatform(url string) string {
	lower := strings.ToLower(url)
	for _, rule := range platformRules {
		if rule.match(lower) {
			return rule.label
		}
	}
	return "Other"
}
