// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package permitfd

import (
	"errors"
	"os"

	"github.com/xmidt-org/permit/permit"
	"golang.org/x/sys/unix"
)

var sentinel = [1]byte{'P'}

// fdEndpoint is a read descriptor and the write descriptor feeding it, usually the ends of a pipe.
type fdEndpoint struct {
	r, w int
}

func (e fdEndpoint) readable() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(e.r), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, 0)
		if err == unix.EINTR {
			continue
		} else if err != nil {
			return false, err
		}

		return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
	}
}

func (e fdEndpoint) signal() error {
	if ready, err := e.readable(); err != nil || ready {
		return err
	}

	for {
		_, err := unix.Write(e.w, sentinel[:])
		if err != unix.EINTR {
			return err
		}
	}
}

func (e fdEndpoint) drain() error {
	var buffer [256]byte
	for {
		ready, err := e.readable()
		if err != nil || !ready {
			return err
		}

		n, err := unix.Read(e.r, buffer[:])
		switch {
		case err == unix.EINTR:
		case err == unix.EAGAIN:
			return nil
		case err != nil:
			return err
		case n == 0:
			return nil
		}
	}
}

// Associate mirrors p onto fds, where fds[0] is read from and fds[1] is written to.  The descriptors
// should be nonblocking, and remain owned by the caller.
func Associate(p *permit.Permit, fds [2]int, o ...Option) (*Association, error) {
	return associate(p, fdEndpoint{r: fds[0], w: fds[1]}, o)
}

// AssociateFile mirrors p onto the descriptors of r and w, such as the results of os.Pipe.
func AssociateFile(p *permit.Permit, r, w *os.File, o ...Option) (*Association, error) {
	return Associate(p, [2]int{int(r.Fd()), int(w.Fd())}, o...)
}

// Pipe creates a nonblocking, close-on-exec pipe suitable for Associate.
func Pipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return fds, err
	}

	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			Close(fds)
			return [2]int{-1, -1}, err
		}
	}

	return fds, nil
}

// Close closes both descriptors of a pair.
func Close(fds [2]int) error {
	return errors.Join(unix.Close(fds[0]), unix.Close(fds[1]))
}
