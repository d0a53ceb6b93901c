// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permitfd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// pending returns the number of bytes waiting to be read from fd
func pending(t *testing.T, fd int) int {
	n, err := unix.IoctlGetInt(fd, unix.FIONREAD)
	require.NoError(t, err)
	return n
}
