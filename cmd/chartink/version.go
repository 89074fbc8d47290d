package main

import (
	"fmt"
	"runtime/debug"
)

type versionCmd struct{ r *root }

func (v *versionCmd) Run() error {
	fmt.Fprintf(v.r.stdout, "chartink %s\n", versionString())
	return nil
}

func versionString() string {
	s := version
	if commit != "" {
		s += " (" + commit
		if date != "" {
			s += " " + date
		}
		s += ")"
	}
	if version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			s = bi.Main.Version
		}
	}
	return s
}
