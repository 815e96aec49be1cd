package cli

import (
	"context"

	"github.com/edavydenko/mylist/internal/client/recommend"
)

const suggestionLimit = 10

func (a *App) Recommend(ctx context.Context, args []string) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}

	suggestions, err := a.engine.Personalized(ctx, a.session.Current().Lists.Media, suggestionLimit)
	if err != nil {
		a.printf("Recommendations unavailable: %v", err)
		return
	}
	a.printSuggestions(suggestions)
}

func (a *App) Similar(ctx context.Context, args []string) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}
	media := a.session.Current().Lists.Media
	if len(media) == 0 {
		a.printf("The media list is empty")
		return
	}
	if len(args) != 1 {
		a.printf("usage: similar <n>")
		return
	}
	i, err := parseIndex(args[0], len(media))
	if err != nil {
		a.printf("%v", err)
		return
	}

	suggestions, err := a.engine.Similar(ctx, media[i], media, suggestionLimit)
	if err != nil {
		a.printf("Recommendations unavailable: %v", err)
		return
	}
	a.printSuggestions(suggestions)
}

func (a *App) printSuggestions(suggestions []recommend.Suggestion) {
	if len(suggestions) == 0 {
		a.printf("No suggestions right now, try adding a few titles first")
		return
	}
	for i, s := range suggestions {
		a.printf("  %d. %s (%s, %s)", i+1, s.Title, s.Type, s.Year)
	}
}

func (a *App) ShowStats(ctx context.Context) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}

	stats, err := a.session.Stats(ctx)
	if err != nil {
		a.printf("Error fetching stats: %v", err)
		return
	}
	a.printf("Media: %d (completed %d, watching %d)", stats.TotalMedia, stats.Completed, stats.Watching)
	a.printf("Todos: %d  Bucket: %d  Travel: %d", stats.TotalTodos, stats.TotalBucket, stats.TotalTravel)
	if !stats.LastActive.IsZero() {
		a.printf("Last active: %s", stats.LastActive.Format("2006-01-02 15:04"))
	}
}

func (a *App) Sync(ctx context.Context) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}

	rec, err := a.session.Refresh(ctx)
	if err != nil {
		a.printf("Sync failed: %v", err)
		return
	}
	a.printf("Up to date, last modified %s", rec.LastModified.Format("2006-01-02 15:04:05"))
}
