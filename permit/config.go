// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import "github.com/spf13/viper"

const (
	// ConfigKey is the Viper subkey under which permit configuration should be stored.
	// FromViper *does not* assume this key.
	ConfigKey = "permit"
)

// Options is the configurable portion of permits and selectors.
type Options struct {
	// SelectCapacity is the number of concurrent selects a Selector supports.  If unset,
	// DefaultCapacity is used.
	SelectCapacity int `json:"selectCapacity"`

	// WakeRounds bounds the broadcast rounds performed by a single grant.  If unset,
	// DefaultWakeRounds is used.
	WakeRounds int `json:"wakeRounds"`
}

func (o *Options) selectCapacity() int {
	if o != nil && o.SelectCapacity > 0 {
		return o.SelectCapacity
	}

	return DefaultCapacity
}

func (o *Options) wakeRounds() int {
	if o != nil && o.WakeRounds > 0 {
		return o.WakeRounds
	}

	return DefaultWakeRounds
}

// NewSelector creates a Selector with the configured capacity.  Any extra options are applied afterward.
func (o *Options) NewSelector(extra ...SelectorOption) *Selector {
	return NewSelector(
		append([]SelectorOption{WithCapacity(o.selectCapacity())}, extra...)...,
	)
}

// PermitOptions returns the permit options for this configuration, followed by any extra options.
func (o *Options) PermitOptions(extra ...Option) []Option {
	return append([]Option{WithWakeRounds(o.wakeRounds())}, extra...)
}

// Sub returns the standard child Viper, using ConfigKey, for this package.
// If passed nil, this function returns nil.
func Sub(v *viper.Viper) *viper.Viper {
	if v != nil {
		return v.Sub(ConfigKey)
	}

	return nil
}

// FromViper produces an Options from a (possibly nil) Viper instance.
// Callers should use FromViper(Sub(v)) if the standard subkey is desired.
func FromViper(v *viper.Viper) (*Options, error) {
	o := new(Options)
	if v != nil {
		if err := v.Unmarshal(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}
