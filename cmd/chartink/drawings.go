package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/export"
	"github.com/example/chartink/internal/session"
)

type drawingsCmd struct {
	*root
	fs        *flag.FlagSet
	action    string
	sessionID string
	asJSON    bool
}

func (d *drawingsCmd) Program() string        { return d.fs.Name() }
func (d *drawingsCmd) FlagSet() *flag.FlagSet { return d.fs }
func (d *drawingsCmd) Template() string       { return "drawings.txt" }

func parseDrawingsCmd(args []string, r *root) (*drawingsCmd, error) {
	d := &drawingsCmd{root: r, fs: r.newFlagSet("drawings")}
	d.fs.StringVar(&d.sessionID, "session", "", "session id (default: most recent session)")
	d.fs.BoolVar(&d.asJSON, "json", false, "print drawings as JSON")
	d.fs.Usage = usageFunc(d)
	if len(args) == 0 {
		return nil, &UsageError{of: d}
	}
	d.action = args[0]
	if err := d.fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	switch d.action {
	case "list", "clear":
	default:
		return nil, &UsageError{of: d, msg: fmt.Sprintf("unknown action %q", d.action)}
	}
	return d, nil
}

func (d *drawingsCmd) Run() error {
	ctx := context.Background()
	repo, err := d.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	sess, err := d.pickSession(ctx, repo)
	if err != nil {
		return err
	}
	if d.action == "clear" {
		n, err := repo.ClearDrawings(ctx, sess.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(d.stdout, "removed %d drawings from session %s\n", n, sess.ID)
		return nil
	}

	items, err := repo.Drawings(ctx, sess.ID)
	if err != nil {
		return err
	}
	if d.asJSON {
		enc := json.NewEncoder(d.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	return writeDrawingTable(d.stdout, sess, items)
}

func (d *drawingsCmd) pickSession(ctx context.Context, repo *session.Repository) (session.Session, error) {
	if d.sessionID != "" {
		return repo.GetSession(ctx, d.sessionID)
	}
	all, err := repo.ListSessions(ctx)
	if err != nil {
		return session.Session{}, err
	}
	if len(all) == 0 {
		return session.Session{}, session.ErrSessionNotFound
	}
	return all[0], nil
}

func writeDrawingTable(w io.Writer, sess session.Session, items []drawing.Annotation) error {
	fmt.Fprintf(w, "session %s (%s %s)\n", sess.ID, sess.Symbol, sess.Timeframe)
	if len(items) == 0 {
		fmt.Fprintln(w, "no drawings")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tPOINTS\tCOLOR\tTEXT")
	for _, a := range items {
		row := export.Describe(a)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", shortID(a.ID), row.Kind, row.Points, row.Color, strings.ReplaceAll(row.Text, "\n", " "))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
