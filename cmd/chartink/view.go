package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/example/chartink/internal/appstate"
	"github.com/example/chartink/internal/chat"
	"github.com/example/chartink/internal/overlay"
	"github.com/example/chartink/internal/session"
)

type viewCmd struct {
	*root
	fs     *flag.FlagSet
	chart  chartFlags
	output string
	chat   string
}

func (v *viewCmd) Program() string        { return v.fs.Name() }
func (v *viewCmd) FlagSet() *flag.FlagSet { return v.fs }
func (v *viewCmd) Template() string       { return "view.txt" }

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	v := &viewCmd{root: r, fs: r.newFlagSet("view")}
	v.chart.register(v.fs, r)
	v.fs.StringVar(&v.output, "o", "", "file the Save button writes (default: <symbol>-<timeframe>.png)")
	v.fs.StringVar(&v.chat, "chat", r.config.Chat.URL, "websocket URL that receives tagged drawings")
	v.fs.Usage = usageFunc(v)
	if err := v.fs.Parse(args); err != nil {
		return nil, err
	}
	if v.fs.NArg() > 0 {
		return nil, &UsageError{of: v, msg: fmt.Sprintf("unexpected argument %q", v.fs.Arg(0))}
	}
	if err := v.chart.validate(); err != nil {
		return nil, &UsageError{of: v, msg: err.Error()}
	}
	return v, nil
}

func (v *viewCmd) Run() error {
	ctx := context.Background()
	ws, err := v.openWorkspace(ctx, &v.chart)
	if err != nil {
		return err
	}
	defer ws.Close()

	sink := session.NewSink(ws.repo, v.log)
	sink.SetActive(ws.session.ID)
	defer func() {
		fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.Flush(fctx); err != nil {
			v.log.Warn().Err(err).Msg("pending drawing writes not flushed")
		}
		sink.Close()
	}()

	ctrlOpts := []overlay.Option{overlay.WithPersistence(sink)}
	if v.chat != "" {
		tagger := chat.NewTagger(v.chat, v.log, chat.WithChart(ws.session.Symbol, ws.session.Timeframe))
		defer tagger.Close()
		ctrlOpts = append(ctrlOpts, overlay.WithChatTagger(tagger))
	}

	output := v.output
	if output == "" {
		output = fmt.Sprintf("%s-%s.png", ws.session.Symbol, ws.session.Timeframe)
	}
	app := appstate.New(ws.viewport, ws.store,
		appstate.WithTitle(fmt.Sprintf("chartink %s %s", ws.session.Symbol, ws.session.Timeframe)),
		appstate.WithOutput(output),
		appstate.WithWarning(ws.data.Warning),
		appstate.WithTheme(v.activeTheme),
		appstate.WithNotifier(v.notifier),
		appstate.WithLogger(v.log),
		appstate.WithOverlayOptions(ctrlOpts...),
	)
	defer app.Close()
	app.Run()
	return nil
}
