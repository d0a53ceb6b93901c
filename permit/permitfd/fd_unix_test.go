// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

package permitfd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/permit/permit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sys/unix"
)

func newPipe(t *testing.T) [2]int {
	fds, err := Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { Close(fds) })
	return fds
}

func testAssociateMirrors(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		fds     = newPipe(t)
		p       = permit.New(permit.NonConsuming, permit.Ungranted)
	)

	a, err := Associate(p, fds)
	require.NoError(err)
	require.NotNil(a)
	assert.Equal(p, a.Permit())
	assert.Zero(pending(t, fds[0]))

	assert.NoError(p.Grant())
	assert.Equal(1, pending(t, fds[0]))
	assert.NoError(p.Grant())
	assert.Equal(1, pending(t, fds[0]))

	assert.NoError(p.Revoke())
	assert.Zero(pending(t, fds[0]))
	assert.NoError(p.Revoke())
	assert.Zero(pending(t, fds[0]))

	assert.NoError(p.Grant())
	assert.Equal(1, pending(t, fds[0]))
	assert.NoError(p.Wait(nil))
	assert.Equal(1, pending(t, fds[0]))
}

func testAssociateGranted(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		fds     = newPipe(t)
		p       = permit.New(permit.NonConsuming, permit.Granted)
	)

	a, err := Associate(p, fds)
	require.NoError(err)
	require.NotNil(a)
	assert.Equal(1, pending(t, fds[0]))

	assert.NoError(p.Revoke())
	assert.Zero(pending(t, fds[0]))
}

func testAssociateInvalid(t *testing.T) {
	var (
		assert    = assert.New(t)
		fds       = newPipe(t)
		destroyed = permit.New(permit.NonConsuming, permit.Ungranted)
	)

	destroyed.Destroy()

	a, err := Associate(permit.New(permit.Consuming, permit.Ungranted), fds)
	assert.Nil(a)
	assert.Equal(ErrConsuming, err)

	a, err = Associate(destroyed, fds)
	assert.Nil(a)
	assert.Equal(permit.ErrInvalidObject, err)

	a, err = Associate(nil, fds)
	assert.Nil(a)
	assert.Equal(permit.ErrInvalidObject, err)
}

func testAssociateDrainsBacklog(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		fds     = newPipe(t)
		p       = permit.New(permit.NonConsuming, permit.Granted)
		backlog = make([]byte, 1000)
	)

	_, err := Associate(p, fds)
	require.NoError(err)

	_, err = unix.Write(fds[1], backlog)
	require.NoError(err)
	assert.Equal(len(backlog)+1, pending(t, fds[0]))

	assert.NoError(p.Revoke())
	assert.Zero(pending(t, fds[0]))
}

func testDeassociate(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		fds     = newPipe(t)
		p       = permit.New(permit.NonConsuming, permit.Ungranted)
		other   = &permit.Hook{}
	)

	require.NoError(p.PushHook(permit.HookGrant, other))

	a, err := Associate(p, fds)
	require.NoError(err)
	assert.Len(p.Hooks(permit.HookGrant), 2)
	assert.Len(p.Hooks(permit.HookRevoke), 1)

	assert.NoError(a.Deassociate())
	assert.Equal([]*permit.Hook{other}, p.Hooks(permit.HookGrant))
	assert.Empty(p.Hooks(permit.HookRevoke))

	assert.NoError(p.Grant())
	assert.Zero(pending(t, fds[0]))

	assert.ErrorIs(a.Deassociate(), permit.ErrHookNotFound)
}

func testAssociateWriteFailure(t *testing.T) {
	var (
		assert     = assert.New(t)
		require    = require.New(t)
		fds        = newPipe(t)
		core, logs = observer.New(zapcore.ErrorLevel)
		p          = permit.New(permit.NonConsuming, permit.Ungranted)
	)

	_, err := Associate(p, [2]int{fds[0], -1}, WithLogger(zap.New(core)))
	require.NoError(err)

	err = p.Grant()
	assert.ErrorIs(err, permit.ErrInternalSync)
	assert.ErrorIs(err, unix.EBADF)
	assert.True(p.Granted())
	assert.Equal(1, logs.FilterMessage("unable to signal descriptor").Len())

	a, err := Associate(permit.New(permit.NonConsuming, permit.Granted), [2]int{fds[0], -1}, WithLogger(nil))
	assert.Nil(a)
	assert.ErrorIs(err, unix.EBADF)
}

func testAssociateFile(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		p       = permit.New(permit.NonConsuming, permit.Ungranted)
	)

	r, w, err := os.Pipe()
	require.NoError(err)
	defer r.Close()
	defer w.Close()

	_, err = AssociateFile(p, r, w)
	require.NoError(err)

	assert.NoError(p.Grant())
	assert.Equal(1, pending(t, int(r.Fd())))
	assert.NoError(p.Revoke())
	assert.Zero(pending(t, int(r.Fd())))
}

func TestAssociate(t *testing.T) {
	t.Run("Mirrors", testAssociateMirrors)
	t.Run("Granted", testAssociateGranted)
	t.Run("Invalid", testAssociateInvalid)
	t.Run("DrainsBacklog", testAssociateDrainsBacklog)
	t.Run("Deassociate", testDeassociate)
	t.Run("WriteFailure", testAssociateWriteFailure)
	t.Run("File", testAssociateFile)
}

func TestPipe(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	fds, err := Pipe()
	require.NoError(err)

	for _, fd := range fds {
		flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
		require.NoError(err)
		assert.NotZero(flags & unix.O_NONBLOCK)
	}

	assert.NoError(Close(fds))
}
