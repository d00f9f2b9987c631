package predictionapi

import (
	"strings"

	"github.com/valyala/bytebufferpool"
)

func buildCurlPreview(method, fullURL string, withToken bool, body []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendFlagHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart(method)
	appendPart(shellQuote(fullURL))
	appendFlagHeader("Accept: application/json")
	if withToken {
		appendFlagHeader("Authorization: Bearer ***")
	}
	if len(body) > 0 {
		appendFlagHeader("Content-Type: application/json")
		appendPart("-d")
		appendPart(shellQuote(truncateForLog(string(body), 512)))
	}

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
