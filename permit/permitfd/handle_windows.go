// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package permitfd

import (
	"github.com/xmidt-org/permit/permit"
	"golang.org/x/sys/windows"
)

var sentinel = [1]byte{'P'}

// handleEndpoint is the read and write handles of an anonymous or named pipe.
type handleEndpoint struct {
	r, w windows.Handle
}

func (e handleEndpoint) available() (uint32, error) {
	var n uint32
	err := windows.PeekNamedPipe(e.r, nil, 0, nil, &n, nil)
	return n, err
}

func (e handleEndpoint) signal() error {
	if n, err := e.available(); err != nil || n > 0 {
		return err
	}

	var written uint32
	return windows.WriteFile(e.w, sentinel[:], &written, nil)
}

func (e handleEndpoint) drain() error {
	var buffer [256]byte
	for {
		n, err := e.available()
		if err != nil || n == 0 {
			return err
		}

		if n > uint32(len(buffer)) {
			n = uint32(len(buffer))
		}

		var read uint32
		if err := windows.ReadFile(e.r, buffer[:n], &read, nil); err != nil {
			return err
		}
	}
}

// AssociateHandle mirrors p onto a pipe, where r is read from and w is written to.  The handles
// remain owned by the caller.
func AssociateHandle(p *permit.Permit, r, w windows.Handle, o ...Option) (*Association, error) {
	return associate(p, handleEndpoint{r: r, w: w}, o)
}

// Pipe creates an anonymous pipe suitable for AssociateHandle.
func Pipe() (r, w windows.Handle, err error) {
	err = windows.CreatePipe(&r, &w, nil, 0)
	return
}
