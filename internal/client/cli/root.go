package cli

import (
	"context"
	"strings"

	"github.com/edavydenko/mylist/internal/client/session"
)

// Root runs the command loop until the user exits or ctx is cancelled.
func (a *App) Root(ctx context.Context) {
	a.printf("myLIST, type \"help\" for commands")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := a.readLine(a.prompt())
		if err != nil {
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		if cmd == "exit" || cmd == "quit" {
			a.printf("Bye!")
			return
		}
		a.dispatch(ctx, cmd, args)
	}
}

func (a *App) prompt() string {
	rec := a.session.Current()
	if rec == nil {
		return "mylist> "
	}
	mode := "offline"
	if a.session.Mode() == session.ModeOnline {
		mode = "online"
	}
	return rec.Username + " (" + mode + ")> "
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		a.Help()
	case "login":
		a.Login(ctx, args)
	case "register":
		a.Register(ctx, args)
	case "logout":
		a.Logout(ctx)
	case "status":
		a.Status()
	case "show", "list", "lists":
		a.Show(args)
	case "add":
		a.Add(ctx, args)
	case "done":
		a.Done(ctx, args)
	case "remove", "rm":
		a.Remove(ctx, args)
	case "search":
		a.Search(ctx, args)
	case "watch":
		a.Watch(ctx, args)
	case "seen":
		a.Seen(ctx, args)
	case "providers":
		a.Providers(ctx, args)
	case "tag":
		a.Tag(ctx, args)
	case "recommend":
		a.Recommend(ctx, args)
	case "similar":
		a.Similar(ctx, args)
	case "stats":
		a.ShowStats(ctx)
	case "sync":
		a.Sync(ctx)
	default:
		a.printf("Unknown command %q, type \"help\" for the list", cmd)
	}
}

func (a *App) Help() {
	a.printf(`Commands:
  login <username>      log in (creates an offline session if the server is down)
  register <username>   create a new account
  logout                end the current session
  status                show session mode

  show [list]           print lists (media, todo, bucket, travel, music, books)
  add <list> <text>     add an item to a list
  done <list> <n>       mark item n as done / visited / completed
  remove <list> <n>     delete item n from a list

  search <title>        search movies and series
  watch <n>             add search result n to your media list
  seen <n>              mark media item n as watched
  providers <n>         show where media item n is streaming
  tag <n> <provider>    mark which service you watch item n on (optional: sub, rent, buy)
  recommend             personalized suggestions
  similar <n>           titles similar to media item n

  stats                 list totals
  sync                  refresh from the server
  exit                  quit`)
}

func (a *App) Status() {
	rec := a.session.Current()
	if rec == nil {
		a.printf("Not logged in")
		return
	}
	switch a.session.Mode() {
	case session.ModeOnline:
		a.printf("Logged in as %s, synced with server", rec.Username)
	default:
		a.printf("Logged in as %s, offline mode (changes stay on this device)", rec.Username)
	}
}
