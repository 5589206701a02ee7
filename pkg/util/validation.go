package util

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	websitePattern = regexp.MustCompile(`^https?://.+\..+`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9\s\-()]{8,}$`)
	clockPattern   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`[\s-]+`)
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	mentionPattern = regexp.MustCompile(`@([\w-]+)`)
)

func IsValidEmail(s string) bool   { return emailPattern.MatchString(s) }
func IsValidWebsite(s string) bool { return websitePattern.MatchString(s) }
func IsValidPhone(s string) bool   { return phonePattern.MatchString(s) }
func IsValidClock(s string) bool   { return clockPattern.MatchString(s) }

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

var imageHosts = []string{"imgur.com", "cloudinary.com", "unsplash.com", "pexels.com", "cdn.", "images.", "assets.", "amazonaws.com", "cloudfront.net"}

// IsValidImageURL accepts empty strings and absolute http(s) URLs that look
// like images by extension or host.
func IsValidImageURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	for _, host := range imageHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomSuffix returns n random base36 characters.
func RandomSuffix(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(base36[i%len(base36)])
			continue
		}
		b.WriteByte(base36[idx.Int64()])
	}
	return b.String()
}

// Slugify lower-cases name, drops punctuation and joins words with '-'.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateBusinessID derives an id like "local-cafe-x7k2" from a business name.
func GenerateBusinessID(name string) string {
	slug := Slugify(name)
	if slug == "" {
		slug = "business"
	}
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	return slug + "-" + RandomSuffix(4)
}

// ExtractHashtags returns lower-cased hashtags in order of appearance.
func ExtractHashtags(content string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(content, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}

// FirstMention returns the first @handle in content, without the '@'.
func FirstMention(content string) string {
	m := mentionPattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return m[1]
}

// UniqueStrings drops empty and repeated entries, keeping first occurrences.
func UniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
