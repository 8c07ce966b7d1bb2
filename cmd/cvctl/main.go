// Command cvctl administers the portfolio API from a terminal.
//
//	cvctl login [username]
//	cvctl whoami
//	cvctl list posts|education|experience
//	cvctl get post <id>
//	cvctl add post title="..." content="..." tags=go,echo
//	cvctl delete experience <id>
//	cvctl logout
//
// The API base URL comes from CVCTL_API (default http://localhost:5000/api).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/iliyamo/portfolio-api/internal/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "cvctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	store, err := client.DefaultSessionStore()
	if err != nil {
		return err
	}
	st, err := store.Load()
	if err != nil {
		return err
	}
	session := client.NewSession(st)
	if session.Expired(time.Now()) {
		session.Clear()
		_ = store.Clear()
	}

	base := os.Getenv("CVCTL_API")
	if base == "" {
		base = "http://localhost:5000/api"
	}
	app := &App{
		Client: client.New(base, session, nil),
		Store:  store,
		Out:    os.Stdout,
		In:     os.Stdin,
	}
	return app.Run(ctx, args)
}
