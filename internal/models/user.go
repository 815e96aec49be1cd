// Package models defines the user record shared by the client and the
// server. The record is the single document the sync layer moves around:
// list items are opaque to it and are only ever replaced wholesale.
package models

import "time"

// MediaStatus tracks watch progress of a media item.
type MediaStatus string

const (
	MediaPlanned    MediaStatus = "planned"
	MediaInProgress MediaStatus = "in-progress"
	MediaCompleted  MediaStatus = "completed"
)

// MediaItem is a movie or series, enriched client-side from OMDB/TMDB.
type MediaItem struct {
	ImdbID    string        `json:"imdbId"`
	Title     string        `json:"title"`
	Type      string        `json:"type"` // movie | series
	Year      string        `json:"year,omitempty"`
	Poster    string        `json:"poster,omitempty"`
	Genre     string        `json:"genre,omitempty"`
	Actors    string        `json:"actors,omitempty"`
	Director  string        `json:"director,omitempty"`
	Status    MediaStatus   `json:"status,omitempty"`
	Providers []ProviderRef `json:"providers,omitempty"`
	AddedAt   time.Time     `json:"addedAt"`
}

// ProviderRef links a media item to a watch provider from the catalog.
type ProviderRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind,omitempty"` // sub | rent | buy
}

// TaskItem is a plain checklist entry (todo, bucket, music, books).
type TaskItem struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Done        bool      `json:"done,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// TravelItem is a destination on the travel list.
type TravelItem struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Country string    `json:"country,omitempty"`
	Visited bool      `json:"visited,omitempty"`
	Notes   string    `json:"notes,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// Lists holds every list a user keeps. The set of lists is fixed so the
// replace-wholesale contract stays type-checked end to end.
type Lists struct {
	Media  []MediaItem  `json:"media"`
	Todo   []TaskItem   `json:"todo"`
	Bucket []TaskItem   `json:"bucket"`
	Travel []TravelItem `json:"travel"`
	Music  []TaskItem   `json:"music"`
	Books  []TaskItem   `json:"books"`
}

// UserRecord is the persisted document: identity plus all list data.
// LastModified is the sole conflict-resolution key between local and
// remote copies and must never decrease for a given username.
type UserRecord struct {
	Username     string    `json:"username"`
	Lists        Lists     `json:"lists"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// NewUserRecord returns an empty record for a freshly registered user.
func NewUserRecord(username string, now time.Time) *UserRecord {
	return &UserRecord{
		Username:     username,
		CreatedAt:    now,
		LastModified: now,
	}
}

// Clone returns a deep-enough copy for handing out without aliasing the
// caller's list slices. Item structs are value types, so copying the
// slices is sufficient.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u
	c.Lists = u.Lists.Clone()
	return &c
}

// Clone copies the list slices.
func (l Lists) Clone() Lists {
	c := l
	c.Media = append([]MediaItem(nil), l.Media...)
	c.Todo = append([]TaskItem(nil), l.Todo...)
	c.Bucket = append([]TaskItem(nil), l.Bucket...)
	c.Travel = append([]TravelItem(nil), l.Travel...)
	c.Music = append([]TaskItem(nil), l.Music...)
	c.Books = append([]TaskItem(nil), l.Books...)
	return c
}

// Stats summarizes a user's lists. The server computes it from the stored
// row; the client computes the same shape locally when offline.
type Stats struct {
	TotalMedia  int       `json:"totalMedia"`
	TotalTodos  int       `json:"totalTodos"`
	TotalBucket int       `json:"totalBucket"`
	TotalTravel int       `json:"totalTravel"`
	Completed   int       `json:"completed"`
	Watching    int       `json:"watching"`
	CreatedAt   time.Time `json:"createdAt"`
	LastActive  time.Time `json:"lastActive"`
}

// StatsFor computes stats from a record. LastActive is left zero: only
// the server knows it.
func StatsFor(u *UserRecord) *Stats {
	s := &Stats{
		TotalMedia:  len(u.Lists.Media),
		TotalTodos:  len(u.Lists.Todo),
		TotalBucket: len(u.Lists.Bucket),
		TotalTravel: len(u.Lists.Travel),
		CreatedAt:   u.CreatedAt,
	}
	for _, m := range u.Lists.Media {
		switch m.Status {
		case MediaCompleted:
			s.Completed++
		case MediaInProgress:
			s.Watching++
		}
	}
	return s
}
