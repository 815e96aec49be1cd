package cli

import (
	"context"
	"strings"
	"time"

	"github.com/edavydenko/mylist/internal/client/metadata"
	"github.com/edavydenko/mylist/internal/models"
)

func (a *App) Search(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.printf("usage: search <title>")
		return
	}
	query := strings.Join(args, " ")

	results, err := a.omdb.Search(ctx, query, "")
	if err != nil {
		a.printf("Search failed: %v", err)
		return
	}
	if len(results) == 0 {
		a.printf("Nothing found for %q", query)
		return
	}

	a.lastSearch = results
	for i, r := range results {
		a.printf("  %d. %s (%s, %s)", i+1, r.Title, r.Type, r.Year)
	}
	a.printf("Use \"watch <n>\" to add one to your media list")
}

func (a *App) Watch(ctx context.Context, args []string) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}
	if len(a.lastSearch) == 0 {
		a.printf("Run \"search <title>\" first")
		return
	}
	if len(args) != 1 {
		a.printf("usage: watch <n>")
		return
	}
	i, err := parseIndex(args[0], len(a.lastSearch))
	if err != nil {
		a.printf("%v", err)
		return
	}
	picked := a.lastSearch[i]

	for _, m := range a.session.Current().Lists.Media {
		if m.ImdbID == picked.ImdbID {
			a.printf("%s is already on your media list", m.Title)
			return
		}
	}

	item := models.MediaItem{
		ImdbID:  picked.ImdbID,
		Title:   picked.Title,
		Type:    picked.Type,
		Year:    picked.Year,
		Poster:  picked.Poster,
		Status:  models.MediaPlanned,
		AddedAt: time.Now(),
	}
	// Enrichment is best effort; a failed lookup still adds the item.
	if full, err := a.omdb.ByID(ctx, picked.ImdbID); err == nil {
		item.Genre = full.Genre
		item.Actors = full.Actors
		item.Director = full.Director
	}

	lists := a.session.Current().Lists.Clone()
	lists.Media = append(lists.Media, item)
	a.printf("Added %s", item.Title)
	a.save(ctx, lists)
}

func (a *App) Seen(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.printf("usage: seen <n>")
		return
	}
	a.mutateItem(ctx, []string{"media", args[0]}, "seen", func(lists *models.Lists, _ string, i int) bool {
		lists.Media[i].Status = models.MediaCompleted
		return true
	})
}

func (a *App) Providers(ctx context.Context, args []string) {
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
		a.printf("usage: providers <n>")
		return
	}
	i, err := parseIndex(args[0], len(media))
	if err != nil {
		a.printf("%v", err)
		return
	}
	item := media[i]

	match, mediaType, ok, err := a.tmdb.FindByImdb(ctx, item.ImdbID)
	if err != nil {
		a.printf("Provider lookup failed: %v", err)
		return
	}
	if !ok {
		a.printf("No provider data for %s", item.Title)
		return
	}

	regions, err := a.tmdb.WatchProviders(ctx, mediaType, match.ID)
	if err != nil {
		a.printf("Provider lookup failed: %v", err)
		return
	}
	region, ok := regions["US"]
	if !ok || (len(region.Flatrate) == 0 && len(region.Rent) == 0 && len(region.Buy) == 0) {
		a.printf("%s is not streaming anywhere right now", item.Title)
		return
	}

	a.printf("%s:", item.Title)
	a.printProviders("Stream", region.Flatrate)
	a.printProviders("Rent", region.Rent)
	a.printProviders("Buy", region.Buy)
}

// Tag records on which provider a media item is watchable, from the
// built-in catalog.
func (a *App) Tag(ctx context.Context, args []string) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}
	media := a.session.Current().Lists.Media
	if len(media) == 0 {
		a.printf("The media list is empty")
		return
	}
	if len(args) < 2 {
		a.printf("usage: tag <n> <provider> [sub|rent|buy]")
		a.printCatalog()
		return
	}

	i, err := parseIndex(args[0], len(media))
	if err != nil {
		a.printf("%v", err)
		return
	}
	p, ok := metadata.ProviderByID(strings.ToLower(args[1]))
	if !ok {
		a.printf("Unknown provider %q", args[1])
		a.printCatalog()
		return
	}

	kind := "sub"
	if len(args) >= 3 {
		kind = strings.ToLower(args[2])
		if !validProviderKind(kind) {
			a.printf("Kind is one of: sub, rent, buy")
			return
		}
	}

	lists := a.session.Current().Lists.Clone()
	item := &lists.Media[i]
	// The clone shares the refs slice with the session's copy.
	item.Providers = append([]models.ProviderRef(nil), item.Providers...)

	tagged := false
	for j, ref := range item.Providers {
		if ref.ID == p.ID {
			item.Providers[j].Kind = kind
			tagged = true
			break
		}
	}
	if !tagged {
		item.Providers = append(item.Providers, models.ProviderRef{ID: p.ID, Kind: kind})
	}

	a.printf("Tagged %s with %s %s", item.Title, p.Emoji, p.Name)
	a.save(ctx, lists)
}

func validProviderKind(kind string) bool {
	for _, k := range metadata.ProviderKinds {
		if k.ID == kind {
			return true
		}
	}
	return false
}

func (a *App) printCatalog() {
	a.printf("Providers:")
	for _, p := range metadata.Providers {
		a.printf("  %s %s (%s)", p.Emoji, p.Name, p.ID)
	}
}

func (a *App) printProviders(label string, opts []metadata.ProviderOption) {
	if len(opts) == 0 {
		return
	}
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.ProviderName)
	}
	a.printf("  %s: %s", label, strings.Join(names, ", "))
}
