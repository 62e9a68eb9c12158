package main

import (
	"context"
	"errors"
	"net"

	"wizdraft/internal/api"
)

// errCodeMissingAttachments mirrors the server's numeric code for a
// submission blocked by attachments whose content is gone.
const errCodeMissingAttachments = 2004

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if apiErr, ok := api.AsAPIError(err); ok {
		switch apiErr.Code {
		case "unavailable":
			lines = append(lines,
				"hint: attachments are disabled for this session; text fields still save.",
				"hint: check WIZDRAFT_DATA_DIR permissions and free space, then restart with: wizdraft srv",
			)
		case "resource_exhausted":
			lines = append(lines, "hint: retry shortly; another sweep is still running.")
		case "conflict":
			if apiErr.ErrorCode == errCodeMissingAttachments {
				lines = append(lines, "hint: re-attach the missing files with: wizdraft attach add <selector> <file>")
			}
		}
		switch apiErr.Reason {
		case "too_large":
			lines = append(lines, "hint: raise the limit with: wizdraft config set attachments.max_bytes <bytes>")
		case "unsupported_type":
			lines = append(lines, "hint: pass --media-type or extend attachments.allowed_media_types.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify WIZDRAFT_API_URL points to a wizdraft server.")
		}
		if apiErr.Status >= 500 && !apiErr.Unavailable() {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase WIZDRAFT_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a wizdraft server is running at WIZDRAFT_API_URL.",
			"hint: start local server manually with: wizdraft srv",
			"hint: you can increase WIZDRAFT_HTTP_TIMEOUT for slower environments.",
		)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
