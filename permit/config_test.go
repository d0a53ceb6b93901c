// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T, config string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	require.NoError(t, v.ReadConfig(strings.NewReader(config)))
	return v
}

func testFromViperNil(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	assert.Nil(Sub(nil))

	o, err := FromViper(nil)
	require.NoError(err)
	require.NotNil(o)
	assert.Equal(DefaultCapacity, o.NewSelector().Capacity())
	assert.Len(o.PermitOptions(), 1)

	p := New(Consuming, Ungranted, o.PermitOptions()...)
	assert.Equal(DefaultWakeRounds, p.wakeRounds)
}

func testFromViperConfigured(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		v       = newTestViper(t, `{"permit": {"selectCapacity": 8, "wakeRounds": 16}}`)
	)

	o, err := FromViper(Sub(v))
	require.NoError(err)
	require.NotNil(o)
	assert.Equal(8, o.SelectCapacity)
	assert.Equal(16, o.WakeRounds)
	assert.Equal(8, o.NewSelector().Capacity())
	assert.Equal(4, o.NewSelector(WithCapacity(4)).Capacity())

	p := New(NonConsuming, Ungranted, o.PermitOptions(WithLogger(nil))...)
	assert.Equal(16, p.wakeRounds)
}

func testFromViperInvalid(t *testing.T) {
	v := newTestViper(t, `{"permit": {"selectCapacity": "lots"}}`)
	o, err := FromViper(Sub(v))
	assert.Error(t, err)
	assert.Nil(t, o)
}

func TestFromViper(t *testing.T) {
	t.Run("Nil", testFromViperNil)
	t.Run("Configured", testFromViperConfigured)
	t.Run("Invalid", testFromViperInvalid)
}
