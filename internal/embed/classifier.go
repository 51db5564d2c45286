// Package embed classifies user-supplied URLs into renderable embed types
// and rewrites platform links into their canonical, embeddable form.
package embed

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Kind identifies how an embed URL should be rendered.
type Kind string

const (
	KindYouTube   Kind = "youtube"
	KindVimeo     Kind = "vimeo"
	KindTwitter   Kind = "twitter"
	KindTikTok    Kind = "tiktok"
	KindInstagram Kind = "instagram"
	KindGiphy     Kind = "giphy"
	KindTenor     Kind = "tenor"
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindLink      Kind = "link"
)

// Classification is the result of classifying a raw embed URL.
type Classification struct {
	Kind         Kind   `json:"kind"`
	CanonicalURL string `json:"canonicalUrl"`
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
}

// Classify maps a raw URL string to a Classification. It returns nil when the
// input cannot be parsed as an absolute http(s) URL; callers must treat nil as
// "no embed". The function is pure and is meant to be re-run on every render,
// since classification rules can change between releases while stored raw
// URLs do not.
func Classify(raw string) *Classification {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch {
	case hostMatches(host, "youtube.com") || host == "youtu.be":
		return classifyYouTube(u, host)
	case hostMatches(host, "vimeo.com"):
		return classifyVimeo(u)
	case hostMatches(host, "twitter.com") || hostMatches(host, "x.com"):
		return classifyTwitter(u)
	case hostMatches(host, "tiktok.com"):
		return &Classification{Kind: KindTikTok, CanonicalURL: stripQuery(u)}
	case hostMatches(host, "instagram.com"):
		return classifyInstagram(u)
	case hostMatches(host, "giphy.com"):
		return &Classification{Kind: KindGiphy, CanonicalURL: stripQuery(u)}
	case hostMatches(host, "tenor.com"):
		return &Classification{Kind: KindTenor, CanonicalURL: stripQuery(u)}
	}

	// Extension checks ignore the query string but the emitted URL keeps it;
	// stripping it would break signed CDN links.
	ext := strings.ToLower(path.Ext(u.Path))
	if imageExtensions[ext] {
		return &Classification{Kind: KindImage, CanonicalURL: u.String()}
	}
	if videoExtensions[ext] {
		return &Classification{Kind: KindVideo, CanonicalURL: u.String()}
	}

	return &Classification{Kind: KindLink, CanonicalURL: u.String()}
}

// hostMatches reports whether host is base itself or a subdomain of base,
// e.g. "m.youtube.com" matches "youtube.com".
func hostMatches(host, base string) bool {
	return host == base || strings.HasSuffix(host, "."+base)
}

// classifyYouTube extracts the video identifier from any of the known URL
// shapes and emits the direct embed URL. A YouTube host with no extractable
// identifier is treated as unparseable rather than a broken embed.
func classifyYouTube(u *url.URL, host string) *Classification {
	var id string

	if host == "youtu.be" {
		if segs := pathSegments(u); len(segs) > 0 {
			id = segs[0]
		}
	} else if v := u.Query().Get("v"); v != "" {
		id = v
	} else {
		segs := pathSegments(u)
		if len(segs) >= 2 {
			switch segs[0] {
			case "shorts", "embed", "live":
				id = segs[1]
			}
		}
	}

	if id == "" {
		return nil
	}
	return &Classification{
		Kind:         KindYouTube,
		CanonicalURL: "https://www.youtube.com/embed/" + id,
	}
}

// classifyVimeo takes the numeric ID from the last path segment. Vimeo URLs
// without a numeric tail (channels, profiles) stay plain links.
func classifyVimeo(u *url.URL) *Classification {
	segs := pathSegments(u)
	if len(segs) > 0 {
		id := segs[len(segs)-1]
		if isDigits(id) {
			return &Classification{
				Kind:         KindVimeo,
				CanonicalURL: "https://player.vimeo.com/video/" + id,
			}
		}
	}
	return &Classification{Kind: KindLink, CanonicalURL: u.String()}
}

// classifyTwitter requires the /<user>/status/<digits> permalink shape and
// always emits the legacy twitter.com domain, which the embed widget needs.
// Anything else under a Twitter/X host (profiles, searches) is still a valid
// clickable link, so it falls back to KindLink rather than nil.
func classifyTwitter(u *url.URL) *Classification {
	segs := pathSegments(u)
	if len(segs) >= 3 && segs[1] == "status" && isDigits(segs[2]) {
		return &Classification{
			Kind:         KindTwitter,
			CanonicalURL: fmt.Sprintf("https://twitter.com/%s/status/%s", segs[0], segs[2]),
		}
	}
	return &Classification{Kind: KindLink, CanonicalURL: u.String()}
}

// classifyInstagram accepts only the /p/, /reel/ and /tv/ permalink forms.
// The canonical form carries a trailing slash; the Instagram embed widget
// fails silently without it.
func classifyInstagram(u *url.URL) *Classification {
	segs := pathSegments(u)
	if len(segs) >= 2 && segs[1] != "" {
		switch segs[0] {
		case "p", "reel", "tv":
			return &Classification{
				Kind:         KindInstagram,
				CanonicalURL: fmt.Sprintf("https://www.instagram.com/%s/%s/", segs[0], segs[1]),
			}
		}
	}
	return &Classification{Kind: KindLink, CanonicalURL: u.String()}
}

// stripQuery drops the query and fragment, keeping scheme, host and path.
// TikTok, Giphy and Tenor widget scripts parse the bare permalink themselves.
func stripQuery(u *url.URL) string {
	clean := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	return clean.String()
}

func pathSegments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
