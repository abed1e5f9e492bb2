package crawler

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// denylist matches paths ending in a file extension that is never worth
// fetching. The empty alternative also rejects paths ending in ".".
var denylist = regexp.MustCompile(`^.*\.(css|js|bmp|gif|jpe?g|ico` +
	`|png|tiff?|mid|mp2|mp3|mp4|wmz` +
	`|wav|avi|mov|mpeg|ram|m4v|mkv|ogg|ogv|pdf` +
	`|ps|eps|tex|ppt|pptx|doc|docx|xls|xlsx|names|data|dat|exe|bz2|tar|msi|bin|7z|psd|dmg|iso|epub|dll|cnf|tgz|sha1` +
	`|thmx|mso|arff|rtf|jar|csv` +
	`|rm|smil|wmv|swf|wma|zip|rar|gz|pdf` +
	`|lif|xml|htm|bam|h|cp|c|hqx|ff|py|.git|.gitignore|odp|java|ai|pov|bib|txt|class|)$`)

var yearPrefix = regexp.MustCompile(`^20\d{2}-`)

// IsValid reports whether rawURL should be fetched: an http(s) URL inside
// the allowed domain that is neither a known trap nor a denied file type.
func (c *Crawler) IsValid(rawURL string) bool {
	if _, ok := c.trapSet[rawURL]; ok {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		c.logger.Warn("malformed url", "url", rawURL, "error", err)
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), c.allowedDomain) &&
		!IsTrap(u) &&
		!denylist.MatchString(strings.ToLower(u.EscapedPath()))
}

// IsTrap reports whether u looks like an endless or low-value URL space:
// fragments, deep or repeating paths, calendar and dataset listings, and
// query strings driving actions or sessions. Paths are judged as written,
// so an escaped slash does not split a segment.
func IsTrap(u *url.URL) bool {
	if u.Fragment != "" {
		return true
	}
	path := u.EscapedPath()
	segments := strings.Split(path, "/")
	has := func(s string) bool { return slices.Contains(segments, s) }
	host := u.Host
	if len(segments) > 6 ||
		has("pix") ||
		(has("pairs") && has("Data")) ||
		(strings.Contains(host, "archive") && strings.Contains(path, "datasets")) ||
		(strings.Contains(host, "wics") && has("events")) ||
		(strings.Contains(host, "cbcl") && has("public_data")) ||
		(strings.Contains(host, "fano") && has("ca") && has("rules")) {
		return true
	}

	q := queryParams(u.RawQuery)
	if len(q) > 4 {
		return true
	}
	for _, name := range []string{"ical", "do", "version", "share"} {
		if _, ok := q[name]; ok {
			return true
		}
	}
	if action, ok := q["action"]; ok {
		switch action[0] {
		case "login", "download", "edit":
			return true
		}
	}
	if from, ok := q["from"]; ok && yearPrefix.MatchString(from[0]) {
		return true
	}
	return hasRepeatingSegments(segments)
}

// hasRepeatingSegments reports a run of more than two identical consecutive
// path segments.
func hasRepeatingSegments(segments []string) bool {
	longest, run := 0, 1
	for i := 1; i < len(segments); i++ {
		if segments[i] == segments[i-1] {
			run++
			continue
		}
		longest = max(longest, run)
		run = 1
	}
	return max(longest, run) > 2
}

// queryParams parses a query string, dropping parameters whose values are
// all blank.
func queryParams(raw string) url.Values {
	parsed, _ := url.ParseQuery(raw)
	q := make(url.Values, len(parsed))
	for name, values := range parsed {
		for _, v := range values {
			if v != "" {
				q[name] = append(q[name], v)
			}
		}
	}
	return q
}
