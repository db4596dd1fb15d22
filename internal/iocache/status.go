package iocache

import (
	"fmt"
	"io"

	"github.com/bobbycyl/osuawa/schema"
	"github.com/dustin/go-humanize"
)

const timeLayout = "2006-01-02 15:04:05"

// PrintCacheStatus prints beatmap cache status information.
func PrintCacheStatus(w io.Writer, status schema.CacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %s\n", humanize.Comma(int64(status.TotalEntries)))
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s (%s)\n", status.LastEntryTime.Format(timeLayout), humanize.Time(status.LastEntryTime))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s (%s)\n", status.OldestEntryTime.Format(timeLayout), humanize.Time(status.OldestEntryTime))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %s\n", humanize.Bytes(uint64(max(status.TableSizeBytes, 0))))
}

// PrintStoreStatus prints score store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	if status.Location != "" {
		_, _ = fmt.Fprintf(w, "Location: %s\n", status.Location)
	}
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Users: %d\n", status.Users)
	_, _ = fmt.Fprintf(w, "Scores: %s (%s completed)\n", humanize.Comma(int64(status.TotalScores)), humanize.Comma(int64(status.CompletedScores)))
	if status.TotalScores > 0 {
		_, _ = fmt.Fprintf(w, "Last Update: %s (%s)\n", status.LastUpdateTime.Format(timeLayout), humanize.Time(status.LastUpdateTime))
	}
	_, _ = fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(max(status.SizeBytes, 0))))
}
