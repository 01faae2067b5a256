package composer

import (
	"time"
)

// State is the composer workflow state.
type State string

const (
	// StateEditing accepts draft mutations and media uploads.
	StateEditing State = "editing"
	// StatePublishing is the transient state while a publish runs. The draft
	// is frozen; concurrent publishes are rejected.
	StatePublishing State = "publishing"
	// StatePublished is entered momentarily after a successful publish before
	// the workflow resets to a fresh editing draft.
	StatePublished State = "published"
	// StateFailed preserves the draft after a failed publish so it can be
	// corrected and retried.
	StateFailed State = "failed"
)

type stateTransition struct {
	from State
	to   State
}

var allowedTransitions = []stateTransition{
	{from: StateEditing, to: StatePublishing},
	{from: StateFailed, to: StatePublishing},
	{from: StatePublishing, to: StatePublished},
	{from: StatePublishing, to: StateFailed},
	{from: StatePublished, to: StateEditing},
	{from: StateFailed, to: StateEditing},
}

// CanTransition reports whether the workflow may move between two states.
func CanTransition(from, to State) bool {
	for _, t := range allowedTransitions {
		if t.from == from && t.to == to {
			return true
		}
	}
	return false
}

// MediaItem is an uploaded attachment referenced by its durable public URL.
type MediaItem struct {
	FileURL     string
	ContentType string
}

// Draft is the in-progress post being composed.
type Draft struct {
	Title       string
	Content     string
	Summary     string
	Category    string
	Location    string
	Breaking    bool
	ScheduledAt *time.Time
	Media       []MediaItem
}

func (d Draft) clone() Draft {
	out := d
	out.Media = append([]MediaItem(nil), d.Media...)
	if d.ScheduledAt != nil {
		at := *d.ScheduledAt
		out.ScheduledAt = &at
	}
	return out
}

// mediaURLs flattens the attachment list for persistence.
func (d Draft) mediaURLs() []string {
	urls := make([]string, 0, len(d.Media))
	for _, item := range d.Media {
		urls = append(urls, item.FileURL)
	}
	return urls
}
