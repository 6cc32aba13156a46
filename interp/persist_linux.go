//go:build linux

package interp

import "golang.org/x/sys/unix"

// Real open(2) flag bits, sourced from the OS rather than invented, so the
// persistency event payloads this package builds for open/write/fsync
// reference genuine vocabulary even though no actual filesystem sits
// underneath (mirrors eventloop/poller_linux.go gating real epoll behind
// a build tag rather than faking syscall numbers).
const (
	flagDirect = unix.O_DIRECT
	flagDsync  = unix.O_DSYNC
	flagSync   = unix.O_SYNC
)
