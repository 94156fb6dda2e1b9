package publisher

import (
	"net/url"
	"strings"
)

const transcodeParams = "vc_h264,ac_aac,f_mp4"

// TranscodeURL injects H.264/AAC/MP4 delivery parameters into a video URL served by a
// transformation-capable CDN. Other URLs are returned unchanged.
func TranscodeURL(raw string, hosts []string) string {
	u, err := url.Parse(raw)
	if err != nil || !hostAllowed(u.Hostname(), hosts) {
		return raw
	}

	idx := strings.Index(raw, "/upload/")
	if idx < 0 {
		return raw
	}
	rest := raw[idx+len("/upload/"):]
	if strings.HasPrefix(rest, transcodeParams) {
		return raw
	}
	return raw[:idx] + "/upload/" + transcodeParams + "/" + rest
}

func hostAllowed(host string, hosts []string) bool {
	for _, h := range hosts {
		if strings.EqualFold(host, h) {
			return true
		}
	}
	return false
}
