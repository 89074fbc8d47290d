package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/chartink/internal/clipboard"
	"github.com/example/chartink/internal/export"
	"github.com/example/chartink/internal/overlay"
)

type outputFormat int

const (
	formatPNG outputFormat = iota
	formatPDF
)

func (f outputFormat) String() string {
	if f == formatPDF {
		return "pdf"
	}
	return "png"
}

// renderCmd draws a session headlessly, as PNG for "render" and PDF for "export".
type renderCmd struct {
	*root
	fs        *flag.FlagSet
	format    outputFormat
	chart     chartFlags
	output    string
	clipboard bool
}

func (c *renderCmd) Program() string        { return c.fs.Name() }
func (c *renderCmd) FlagSet() *flag.FlagSet { return c.fs }
func (c *renderCmd) Template() string {
	if c.format == formatPDF {
		return "export.txt"
	}
	return "render.txt"
}

func parseRenderCmd(args []string, r *root, format outputFormat) (*renderCmd, error) {
	name := "render"
	if format == formatPDF {
		name = "export"
	}
	c := &renderCmd{root: r, fs: r.newFlagSet(name), format: format}
	c.chart.register(c.fs, r)
	c.fs.StringVar(&c.output, "o", "", "output file (default: <symbol>-<timeframe>."+format.String()+")")
	if format == formatPNG {
		c.fs.BoolVar(&c.clipboard, "clipboard", false, "copy the image to the clipboard")
	}
	c.fs.Usage = usageFunc(c)
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}
	if c.fs.NArg() > 0 {
		return nil, &UsageError{of: c, msg: fmt.Sprintf("unexpected argument %q", c.fs.Arg(0))}
	}
	if err := c.chart.validate(); err != nil {
		return nil, &UsageError{of: c, msg: err.Error()}
	}
	if c.output != "" {
		ext := strings.ToLower(filepath.Ext(c.output))
		if ext != "" && ext != "."+format.String() {
			return nil, &UsageError{of: c, msg: fmt.Sprintf("output %q must be a .%s file", c.output, format)}
		}
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	ctx := context.Background()
	ws, err := c.openWorkspace(ctx, &c.chart)
	if err != nil {
		return err
	}
	defer ws.Close()

	items := ws.store.All()
	img, err := overlay.Snapshot(ws.viewport, items,
		overlay.WithTheme(c.activeTheme),
		overlay.WithLogger(c.log),
	)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	output := c.output
	if output == "" && !(c.format == formatPNG && c.clipboard) {
		output = fmt.Sprintf("%s-%s.%s", ws.session.Symbol, ws.session.Timeframe, c.format)
	}

	switch c.format {
	case formatPDF:
		subtitle := fmt.Sprintf("%s %s, session %s", ws.session.Symbol, ws.session.Timeframe, ws.session.ID)
		if ws.data.Fallback {
			subtitle += " (sample data)"
		}
		doc := export.Document{
			Title:     ws.session.Symbol,
			Subtitle:  subtitle,
			Chart:     img,
			Drawings:  items,
			Generated: time.Now(),
		}
		if err := export.WritePDFFile(output, doc); err != nil {
			return err
		}
	default:
		if output != "" {
			if err := writePNG(output, img); err != nil {
				return err
			}
		}
		if c.clipboard {
			if err := clipboard.WriteImage(img); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			c.notifier.Copy(fmt.Sprintf("%s %s", ws.session.Symbol, ws.session.Timeframe), img)
			fmt.Fprintln(c.stdout, "copied chart to clipboard")
		}
	}
	if output != "" {
		c.notifier.Save(output)
		fmt.Fprintf(c.stdout, "saved %s\n", output)
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
