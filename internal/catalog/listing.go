package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Entry describes one converted video for the reporting endpoint.
type Entry struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"size_formatted"`
	Date          time.Time `json:"date"`
	DateFormatted string    `json:"date_formatted"`
	Format        string    `json:"format"`
}

// ListOutputs walks the output root and returns converted videos sorted
// newest-first. A missing root yields an empty listing; unreadable entries
// are skipped.
func ListOutputs(root string) []Entry {
	var entries []Entry
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), OutputExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		entries = append(entries, Entry{
			Name:          rel,
			Size:          info.Size(),
			SizeFormatted: humanize.IBytes(uint64(info.Size())),
			Date:          info.ModTime(),
			DateFormatted: info.ModTime().Format("02.01.2006 15:04"),
			Format:        strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), ".")),
		})
		return nil
	})

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}
