package main

import (
	"flag"
	"fmt"

	"github.com/example/chartink/internal/config"
)

type configCmd struct {
	*root
	fs     *flag.FlagSet
	action string
	path   string
}

func (c *configCmd) Program() string        { return c.fs.Name() }
func (c *configCmd) FlagSet() *flag.FlagSet { return c.fs }
func (c *configCmd) Template() string       { return "config.txt" }

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	c := &configCmd{root: r, fs: r.newFlagSet("config")}
	c.fs.StringVar(&c.path, "o", "", "file to write for save (default: the active config path)")
	c.fs.Usage = usageFunc(c)
	if len(args) == 0 {
		return nil, &UsageError{of: c}
	}
	c.action = args[0]
	if err := c.fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	switch c.action {
	case "print", "save":
	default:
		return nil, &UsageError{of: c, msg: fmt.Sprintf("unknown action %q", c.action)}
	}
	return c, nil
}

func (c *configCmd) Run() error {
	if c.action == "print" {
		fmt.Fprint(c.stdout, c.config.String())
		return nil
	}
	path := c.path
	if path == "" {
		path = c.configPath
	}
	if path == "" {
		path = config.NewLoader(version, "").GetConfigPath()
	}
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(c.config, path); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "wrote %s\n", path)
	return nil
}
