// Command upcoming prints the locally saved calendar events that have not
// passed yet, soonest first.
package main

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hyeon/campus-notices/internal/calendar"
	"github.com/hyeon/campus-notices/internal/models"
)

func main() {
	path := os.Getenv("CALENDAR_PATH")
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		path = filepath.Join(dir, "campus-notices", "calendar_events.json")
	}

	storage, err := calendar.NewFileStorage(path)
	if err != nil {
		log.Fatal(err)
	}
	store := calendar.NewStore(storage)
	defer store.Close()

	now := time.Now()
	var upcoming []models.CalendarEvent
	for _, ev := range store.Events() {
		if ev.StartAt.After(now) {
			upcoming = append(upcoming, ev)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartAt.Before(upcoming[j].StartAt)
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Notice", "Title", "Starts", "In", "Source"})

	for _, ev := range upcoming {
		t.AppendRow(table.Row{
			ev.NoticeID,
			ev.Title,
			ev.StartAt.Format("2006-01-02 15:04"),
			ev.StartAt.Sub(now).Round(time.Hour).String(),
			ev.Source,
		})
	}
	t.Render()
}
