package catalog

import (
	"regexp"
	"strings"
)

// streamingPatterns classify URLs into protocol families.
// Checked in order; the first match wins.
var streamingPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"rtsp", regexp.MustCompile(`^rtsp://[^/]+(:\d+)?(/[^?]*)?(\?.*)?$`)},
	{"rtmp", regexp.MustCompile(`^rtmp://[^/]+(:\d+)?(/[^?]*)?(\?.*)?$`)},
	{"ws", regexp.MustCompile(`^wss?://[^/]+(:\d+)?(/[^?]*)?(\?.*)?$`)},
	{"hls", regexp.MustCompile(`.*\.(m3u8|m3u)(\?.*)?$`)},
	{"dash", regexp.MustCompile(`.*\.mpd(\?.*)?$`)},
	{"http_stream", regexp.MustCompile(`.*\.(ts|mp4|flv|m4s|webm|mkv|avi|mov)(\?.*)?$`)},
	{"mobile", regexp.MustCompile(`.*/mobile/(stream|live|playlist)(\?.*)?$`)},
	{"adaptive", regexp.MustCompile(`.*/(manifest|playlist|stream|live)(\?.*)?$`)},
}

// Classify returns the protocol family of a stream URL, or "unknown".
// The monitor uses this to pick a re-verification method: rtsp URLs get
// an OPTIONS handshake, rtmp URLs a reachability check, everything else
// an HTTP GET with content sniffing.
func Classify(url string) string {
	for _, p := range streamingPatterns {
		if p.pattern.MatchString(url) {
			return p.name
		}
	}
	return "unknown"
}

// IsStreamingURL reports whether the URL matches any known streaming
// pattern.
func IsStreamingURL(url string) bool {
	return Classify(url) != "unknown"
}

// IsVideoContentType reports whether the content type indicates a video
// or streaming payload.
func IsVideoContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, vct := range videoContentTypes {
		if strings.Contains(ct, vct) {
			return true
		}
	}
	return false
}
