package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/iliyamo/portfolio-api/internal/client"
	"github.com/iliyamo/portfolio-api/internal/model"
)

// readPassword is swapped out in tests so no terminal is needed.
var readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }

const usage = `usage:
  cvctl register [username]
  cvctl login [username]
  cvctl logout
  cvctl whoami
  cvctl list <posts|education|experience>
  cvctl get post <id>
  cvctl add <posts|education|experience> key=value...
  cvctl delete <posts|education|experience> <id>`

var errUsage = errors.New(usage)

type App struct {
	Client *client.Client
	Store  *client.SessionStore
	Out    io.Writer
	In     io.Reader
}

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		a.Client.Logout()
		if err := a.Store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.Out, "logged out")
		return nil
	case "whoami":
		name, err := a.Client.Me(ctx)
		if client.IsUnauthorized(err) {
			return errors.New("not logged in")
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out, name)
		return nil
	case "list":
		if len(rest) != 1 {
			return errUsage
		}
		return a.list(ctx, rest[0])
	case "get":
		if len(rest) != 2 || resourceName(rest[0]) != "posts" {
			return errUsage
		}
		p, err := a.Client.Posts().Get(ctx, rest[1])
		if err != nil {
			return err
		}
		return printJSON(a.Out, p)
	case "add":
		if len(rest) < 2 {
			return errUsage
		}
		return a.add(ctx, rest[0], rest[1:])
	case "delete":
		if len(rest) != 2 {
			return errUsage
		}
		return a.remove(ctx, rest[0], rest[1])
	case "help", "-h", "--help":
		fmt.Fprintln(a.Out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func (a *App) credentials(args []string) (string, string, error) {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Fprint(a.Out, "Username: ")
		line, err := bufio.NewReader(a.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", err
		}
		username = strings.TrimSpace(line)
	}
	fmt.Fprint(a.Out, "Password: ")
	pw, err := readPassword()
	fmt.Fprintln(a.Out)
	if err != nil {
		return "", "", err
	}
	return username, string(pw), nil
}

func (a *App) register(ctx context.Context, args []string) error {
	username, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	if err := a.Client.Register(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "user created")
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	username, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	st, err := a.Client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.Store.Save(st); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "logged in as %s until %s\n", st.Username, st.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

// resourceName accepts singular, plural and Spanish spellings.
func resourceName(s string) string {
	switch strings.ToLower(s) {
	case "post", "posts":
		return "posts"
	case "education", "estudios":
		return "education"
	case "experience", "experiencia":
		return "experience"
	}
	return ""
}

func (a *App) list(ctx context.Context, resource string) error {
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch resourceName(resource) {
	case "posts":
		return listRows(ctx, a.Client.Posts(), tw, func(p model.Post) string {
			return strings.Join([]string{p.ID, p.CreatedAt.Format("2006-01-02"), p.Title, strings.Join(p.Tags, ",")}, "\t")
		})
	case "education":
		return listRows(ctx, a.Client.Education(), tw, func(e model.Education) string {
			return strings.Join([]string{e.ID, e.Institution, e.Degree, e.StartDate + " - " + e.EndDate}, "\t")
		})
	case "experience":
		return listRows(ctx, a.Client.Experience(), tw, func(e model.Experience) string {
			return strings.Join([]string{e.ID, e.Company, e.Position, e.StartDate + " - " + e.EndDate}, "\t")
		})
	}
	return fmt.Errorf("unknown resource %q", resource)
}

func listRows[T any](ctx context.Context, r *client.Resource[T], w io.Writer, row func(T) string) error {
	if err := r.Load(ctx); err != nil {
		return err
	}
	for _, it := range r.Items() {
		fmt.Fprintln(w, row(it))
	}
	return nil
}

func (a *App) add(ctx context.Context, resource string, pairs []string) error {
	fields, err := parsePairs(pairs)
	if err != nil {
		return err
	}
	switch resourceName(resource) {
	case "posts":
		return addDoc(ctx, a.Client.Posts(), fields, a.Out)
	case "education":
		return addDoc(ctx, a.Client.Education(), fields, a.Out)
	case "experience":
		return addDoc(ctx, a.Client.Experience(), fields, a.Out)
	}
	return fmt.Errorf("unknown resource %q", resource)
}

// parsePairs turns key=value arguments into a JSON-ready map. "tags" is a
// comma-separated list.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		if k == "tags" {
			out[k] = strings.Split(v, ",")
			continue
		}
		out[k] = v
	}
	return out, nil
}

func addDoc[T any](ctx context.Context, r *client.Resource[T], fields map[string]any, w io.Writer) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	created, err := r.Add(ctx, doc)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			for _, f := range apiErr.Fields {
				fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
			}
		}
		return err
	}
	return printJSON(w, created)
}

func (a *App) remove(ctx context.Context, resource, id string) error {
	var err error
	switch resourceName(resource) {
	case "posts":
		err = a.Client.Posts().Remove(ctx, id)
	case "education":
		err = a.Client.Education().Remove(ctx, id)
	case "experience":
		err = a.Client.Experience().Remove(ctx, id)
	default:
		return fmt.Errorf("unknown resource %q", resource)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "deleted")
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
