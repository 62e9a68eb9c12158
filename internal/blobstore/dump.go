package blobstore

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"wizdraft/internal/models"
)

// WriteDump writes a human-readable table of infos to w.
func WriteDump(w io.Writer, infos []models.BlobInfo, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tSTORED"); err != nil {
		return err
	}
	var total uint64
	for _, info := range infos {
		total += info.Metadata.Size
		name := info.Metadata.OriginalName
		if name == "" {
			name = "-"
		}
		mimeType := info.Metadata.MimeType
		if mimeType == "" {
			mimeType = "-"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			info.ID,
			name,
			mimeType,
			humanize.IBytes(info.Metadata.Size),
			humanize.RelTime(info.StoredAt, now, "ago", "from now"),
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s in %s\n", humanize.IBytes(total), pluralize(len(infos), "blob"))
	return err
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}
