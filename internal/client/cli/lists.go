package cli

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edavydenko/mylist/internal/client/metadata"
	"github.com/edavydenko/mylist/internal/models"
)

var listNames = []string{"media", "todo", "bucket", "travel", "music", "books"}

func (a *App) Show(args []string) {
	rec := a.session.Current()
	if rec == nil {
		a.printf("Log in first")
		return
	}

	if len(args) == 1 {
		a.showOne(rec, strings.ToLower(args[0]))
		return
	}
	for _, name := range listNames {
		a.showOne(rec, name)
	}
}

func (a *App) showOne(rec *models.UserRecord, name string) {
	switch name {
	case "media":
		a.printf("Media (%d):", len(rec.Lists.Media))
		for i, m := range rec.Lists.Media {
			mark := " "
			switch m.Status {
			case models.MediaCompleted:
				mark = "x"
			case models.MediaInProgress:
				mark = "~"
			}
			tags := ""
			for _, ref := range m.Providers {
				if p, ok := metadata.ProviderByID(ref.ID); ok {
					tags += " " + p.Emoji
				}
			}
			a.printf("  %d. [%s] %s (%s, %s)%s", i+1, mark, m.Title, m.Type, m.Year, tags)
		}
	case "travel":
		a.printf("Travel (%d):", len(rec.Lists.Travel))
		for i, t := range rec.Lists.Travel {
			mark := " "
			if t.Visited {
				mark = "x"
			}
			a.printf("  %d. [%s] %s", i+1, mark, t.Name)
		}
	case "todo", "bucket", "music", "books":
		items := taskList(rec, name)
		a.printf("%s (%d):", strings.ToUpper(name[:1])+name[1:], len(*items))
		for i, t := range *items {
			mark := " "
			if t.Done {
				mark = "x"
			}
			a.printf("  %d. [%s] %s", i+1, mark, t.Text)
		}
	default:
		a.printf("Unknown list %q (media, todo, bucket, travel, music, books)", name)
	}
}

func (a *App) Add(ctx context.Context, args []string) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}
	if len(args) < 2 {
		a.printf("usage: add <list> <text>")
		return
	}
	name, text := strings.ToLower(args[0]), strings.Join(args[1:], " ")

	lists := a.session.Current().Lists.Clone()
	switch name {
	case "media":
		a.printf("Use \"search <title>\" then \"watch <n>\" to add media")
		return
	case "travel":
		lists.Travel = append(lists.Travel, models.TravelItem{
			ID:      uuid.NewString(),
			Name:    text,
			AddedAt: time.Now(),
		})
	case "todo", "bucket", "music", "books":
		items := taskListOf(&lists, name)
		*items = append(*items, models.TaskItem{
			ID:        uuid.NewString(),
			Text:      text,
			CreatedAt: time.Now(),
		})
	default:
		a.printf("Unknown list %q", name)
		return
	}
	a.save(ctx, lists)
}

func (a *App) Done(ctx context.Context, args []string) {
	a.mutateItem(ctx, args, "done", func(lists *models.Lists, name string, i int) bool {
		switch name {
		case "media":
			lists.Media[i].Status = models.MediaCompleted
		case "travel":
			lists.Travel[i].Visited = true
		default:
			items := taskListOf(lists, name)
			(*items)[i].Done = true
			(*items)[i].CompletedAt = time.Now()
		}
		return true
	})
}

func (a *App) Remove(ctx context.Context, args []string) {
	a.mutateItem(ctx, args, "remove", func(lists *models.Lists, name string, i int) bool {
		switch name {
		case "media":
			lists.Media = append(lists.Media[:i], lists.Media[i+1:]...)
		case "travel":
			lists.Travel = append(lists.Travel[:i], lists.Travel[i+1:]...)
		default:
			items := taskListOf(lists, name)
			*items = append((*items)[:i], (*items)[i+1:]...)
		}
		return true
	})
}

// mutateItem resolves "<list> <n>" arguments, applies fn to a cloned
// Lists and saves the result.
func (a *App) mutateItem(ctx context.Context, args []string, verb string, fn func(*models.Lists, string, int) bool) {
	if !a.isLoggedIn() {
		a.printf("Log in first")
		return
	}
	if len(args) != 2 {
		a.printf("usage: %s <list> <n>", verb)
		return
	}
	name := strings.ToLower(args[0])

	lists := a.session.Current().Lists.Clone()
	length := 0
	switch name {
	case "media":
		length = len(lists.Media)
	case "travel":
		length = len(lists.Travel)
	case "todo", "bucket", "music", "books":
		length = len(*taskListOf(&lists, name))
	default:
		a.printf("Unknown list %q", name)
		return
	}
	if length == 0 {
		a.printf("The %s list is empty", name)
		return
	}

	i, err := parseIndex(args[1], length)
	if err != nil {
		a.printf("%v", err)
		return
	}
	if fn(&lists, name, i) {
		a.save(ctx, lists)
	}
}

func (a *App) save(ctx context.Context, lists models.Lists) {
	res, err := a.session.UpdateLists(ctx, lists)
	if err != nil {
		a.printf("Error saving: %v", err)
		return
	}
	a.printf("%s", res.Message)
}

func taskList(rec *models.UserRecord, name string) *[]models.TaskItem {
	return taskListOf(&rec.Lists, name)
}

func taskListOf(lists *models.Lists, name string) *[]models.TaskItem {
	switch name {
	case "todo":
		return &lists.Todo
	case "bucket":
		return &lists.Bucket
	case "music":
		return &lists.Music
	default:
		return &lists.Books
	}
}
