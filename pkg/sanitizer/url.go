package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeImageURL cleans an image reference. Absolute http(s) URLs get a
// lowercase host and lose utm_* parameters; the path keeps its case.
// Relative paths such as "/images/car.jpg" are only trimmed.
func NormalizeImageURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func NormalizeImages(images []string) []string {
	if images == nil {
		return nil
	}
	return NormalizeStringSlice(images, NormalizeImageURL)
}
