// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"github.com/go-kit/kit/metrics"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SelectorIn is the set of dependencies for a Selector within an uber/fx application.  Every
// dependency is optional.
type SelectorIn struct {
	fx.In

	Logger *zap.Logger  `optional:"true"`
	Viper  *viper.Viper `optional:"true"`

	Selects       metrics.Counter `name:"permit_select_count" optional:"true"`
	ActiveSelects metrics.Gauge   `name:"permit_active_selects" optional:"true"`
}

// NewSelectorIn builds a Selector from configuration under ConfigKey.
func NewSelectorIn(in SelectorIn) (*Selector, error) {
	o, err := FromViper(Sub(in.Viper))
	if err != nil {
		return nil, err
	}

	return o.NewSelector(
		WithSelectorLogger(in.Logger),
		WithSelectorMeasures(&Measures{
			Selects:       in.Selects,
			ActiveSelects: in.ActiveSelects,
		}),
	), nil
}

// Provide supplies a *Selector to an uber/fx application.  Pair it with ProvideMetrics to
// report select outcomes.
func Provide() fx.Option {
	return fx.Provide(NewSelectorIn)
}
