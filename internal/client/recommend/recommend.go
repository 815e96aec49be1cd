// Package recommend derives title suggestions from a user's media list.
// It is a best-effort heuristic: count genre/actor/director/decade
// frequencies, turn the top entries into a handful of search queries,
// and fan them out sequentially to OMDB, deduplicating against titles
// the user already owns. Per-query failures are skipped.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/edavydenko/mylist/internal/client/metadata"
	"github.com/edavydenko/mylist/internal/logging"
	"github.com/edavydenko/mylist/internal/models"
)

const maxQueries = 6

// defaultQueries seed recommendations for users with an empty media list.
var defaultQueries = []string{
	"marvel",
	"christopher nolan",
	"thriller 2023",
	"comedy",
	"action adventure",
}

// Suggestion is one recommended title.
type Suggestion struct {
	ImdbID string
	Title  string
	Type   string
	Year   string
	Poster string
}

// Searcher is the slice of the OMDB client the engine needs.
type Searcher interface {
	Search(ctx context.Context, query, mediaType string) ([]metadata.SearchResult, error)
}

// Engine issues recommendation searches.
type Engine struct {
	omdb Searcher
	log  logging.Logger
}

func NewEngine(omdb Searcher, log logging.Logger) *Engine {
	return &Engine{omdb: omdb, log: log}
}

// preferences holds frequency counts extracted from the media list.
type preferences struct {
	genres    map[string]int
	actors    map[string]int
	directors map[string]int
	decades   map[int]int
}

func analyze(media []models.MediaItem) preferences {
	p := preferences{
		genres:    map[string]int{},
		actors:    map[string]int{},
		directors: map[string]int{},
		decades:   map[int]int{},
	}

	for _, item := range media {
		for _, g := range splitList(item.Genre) {
			p.genres[g]++
		}
		// Only leading cast members carry signal.
		actors := splitList(item.Actors)
		if len(actors) > 2 {
			actors = actors[:2]
		}
		for _, a := range actors {
			p.actors[a]++
		}
		for _, d := range splitList(item.Director) {
			p.directors[d]++
		}
		if year, err := strconv.Atoi(strings.Trim(item.Year, "– ")); err == nil {
			p.decades[year/10*10]++
		}
	}
	return p
}

func splitList(s string) []string {
	if s == "" || s == "N/A" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" && v != "N/A" {
			out = append(out, v)
		}
	}
	return out
}

// top returns the up-to-n most frequent keys, most frequent first.
// Ties break alphabetically so results are stable.
func top(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// queriesFor builds up to maxQueries search queries from the media list.
func queriesFor(media []models.MediaItem) []string {
	if len(media) == 0 {
		return defaultQueries
	}

	p := analyze(media)
	var queries []string

	for _, g := range top(p.genres, 2) {
		queries = append(queries, strings.ToLower(g))
	}
	queries = append(queries, top(p.directors, 2)...)
	queries = append(queries, top(p.actors, 1)...)

	// Anchor on the most recently added titles. New items are appended,
	// so the newest sit at the tail.
	recent := media
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}
	for _, item := range recent {
		genres := splitList(item.Genre)
		if len(genres) == 0 {
			continue
		}
		year := item.Year
		if year == "" {
			year = "2023"
		}
		queries = append(queries, fmt.Sprintf("%s %s", strings.ToLower(genres[0]), year))
	}

	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}

// Personalized returns up to limit suggestions based on the user's media
// list, excluding titles already on it.
func (e *Engine) Personalized(ctx context.Context, media []models.MediaItem, limit int) ([]Suggestion, error) {
	seen := make(map[string]bool, len(media))
	for _, item := range media {
		if item.ImdbID != "" {
			seen[item.ImdbID] = true
		}
	}

	hasSeries := false
	for _, item := range media {
		if item.Type == "series" {
			hasSeries = true
			break
		}
	}

	var out []Suggestion
	for _, query := range queriesFor(media) {
		out = e.collect(ctx, out, seen, query, "movie", 3)
		if hasSeries {
			out = e.collect(ctx, out, seen, query, "series", 2)
		}
		if len(out) >= limit {
			break
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Similar suggests titles close to one item: by its genres, director and
// lead actor.
func (e *Engine) Similar(ctx context.Context, item models.MediaItem, media []models.MediaItem, limit int) ([]Suggestion, error) {
	var queries []string
	genres := splitList(item.Genre)
	if len(genres) > 2 {
		genres = genres[:2]
	}
	for _, g := range genres {
		queries = append(queries, strings.ToLower(g))
	}
	queries = append(queries, splitList(item.Director)...)
	if actors := splitList(item.Actors); len(actors) > 0 {
		queries = append(queries, actors[0])
	}
	if len(queries) > 4 {
		queries = queries[:4]
	}

	mediaType := item.Type
	if mediaType == "" {
		mediaType = "movie"
	}

	seen := map[string]bool{item.ImdbID: true}
	for _, m := range media {
		if m.ImdbID != "" {
			seen[m.ImdbID] = true
		}
	}

	var out []Suggestion
	for _, query := range queries {
		out = e.collect(ctx, out, seen, query, mediaType, 3)
		if len(out) >= limit {
			break
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// collect runs one search and appends up to take unseen results.
func (e *Engine) collect(ctx context.Context, out []Suggestion, seen map[string]bool, query, mediaType string, take int) []Suggestion {
	results, err := e.omdb.Search(ctx, query, mediaType)
	if err != nil {
		e.log.Warn(ctx, "recommendation search failed", "query", query, "error", err)
		return out
	}
	if len(results) > take {
		results = results[:take]
	}
	for _, r := range results {
		if seen[r.ImdbID] {
			continue
		}
		seen[r.ImdbID] = true
		out = append(out, Suggestion{
			ImdbID: r.ImdbID,
			Title:  r.Title,
			Type:   r.Type,
			Year:   r.Year,
			Poster: posterOrEmpty(r.Poster),
		})
	}
	return out
}

func posterOrEmpty(p string) string {
	if p == "N/A" {
		return ""
	}
	return p
}
