//go:build !cgo && !windows && !linux && !freebsd && !openbsd && !netbsd && !dragonfly

package clipboard

func initBackend() error { return ErrUnsupported }

func writeImage([]byte) error { return ErrUnsupported }

func writeText(string) error { return ErrUnsupported }
