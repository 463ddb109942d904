package views

import (
	"html/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eringen/pubcontent"
)

var funcs = template.FuncMap{
	"date":      formatDate,
	"isoDate":   isoDate,
	"timestamp": timestamp,
	"ago":       humanize.Time,
	"size":      bodySize,
	"tagClass":  TagClass,
	"joinTags":  pubcontent.JoinTags,
}

func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

func isoDate(t time.Time) string {
	return t.Format(pubcontent.DateLayout)
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

func bodySize(body string) string {
	return humanize.Bytes(uint64(len(body)))
}

// TagClass returns the CSS class of a tag pill.
func TagClass(active bool) string {
	if active {
		return "active"
	}
	return ""
}
