// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"context"
	"errors"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/permit/xmetrics"
	themisXmetrics "github.com/xmidt-org/themis/xmetrics"
	"go.uber.org/fx"
)

// Names for our metrics
const (
	GrantCount    = "permit_grant_count"
	RevokeCount   = "permit_revoke_count"
	WaitCount     = "permit_wait_count"
	SelectCount   = "permit_select_count"
	ActiveSelects = "permit_active_selects"
)

// OutcomeLabel is the label carrying the result of a wait or select.
const OutcomeLabel = "outcome"

// outcomes
const (
	AcquiredOutcome  = "acquired"
	TimeoutOutcome   = "timeout"
	InvalidOutcome   = "invalid"
	ExhaustedOutcome = "exhausted"
	CanceledOutcome  = "canceled"
	ErrorOutcome     = "error"
)

// help messages
const (
	grantHelpMsg         = "Count of grants issued to permits"
	revokeHelpMsg        = "Count of revocations issued to permits"
	waitHelpMsg          = "Count of completed permit waits, by outcome"
	selectHelpMsg        = "Count of completed selects, by outcome"
	activeSelectsHelpMsg = "The number of selects currently blocked"
)

// outcomeOf maps the result of a wait or select onto an outcome label value.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return AcquiredOutcome
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return TimeoutOutcome
	case errors.Is(err, ErrInvalidObject):
		return InvalidOutcome
	case errors.Is(err, ErrResourceExhausted):
		return ExhaustedOutcome
	case errors.Is(err, context.Canceled):
		return CanceledOutcome
	default:
		return ErrorOutcome
	}
}

// Metrics returns the Metrics relevant to this package targeting our older non uber/fx applications.
// To initialize the metrics, use NewMeasures().
func Metrics() []xmetrics.Metric {
	return []xmetrics.Metric{
		{
			Name: GrantCount,
			Type: xmetrics.CounterType,
			Help: grantHelpMsg,
		},
		{
			Name: RevokeCount,
			Type: xmetrics.CounterType,
			Help: revokeHelpMsg,
		},
		{
			Name:       WaitCount,
			Type:       xmetrics.CounterType,
			Help:       waitHelpMsg,
			LabelNames: []string{OutcomeLabel},
		},
		{
			Name:       SelectCount,
			Type:       xmetrics.CounterType,
			Help:       selectHelpMsg,
			LabelNames: []string{OutcomeLabel},
		},
		{
			Name: ActiveSelects,
			Type: xmetrics.GaugeType,
			Help: activeSelectsHelpMsg,
		},
	}
}

// ProvideMetrics provides the metrics relevant to this package as uber/fx options.
func ProvideMetrics() fx.Option {
	return fx.Provide(
		themisXmetrics.ProvideCounter(prometheus.CounterOpts{
			Name: GrantCount,
			Help: grantHelpMsg,
		}),
		themisXmetrics.ProvideCounter(prometheus.CounterOpts{
			Name: RevokeCount,
			Help: revokeHelpMsg,
		}),
		themisXmetrics.ProvideCounter(prometheus.CounterOpts{
			Name: WaitCount,
			Help: waitHelpMsg,
		}, OutcomeLabel),
		themisXmetrics.ProvideCounter(prometheus.CounterOpts{
			Name: SelectCount,
			Help: selectHelpMsg,
		}, OutcomeLabel),
		themisXmetrics.ProvideGauge(prometheus.GaugeOpts{
			Name: ActiveSelects,
			Help: activeSelectsHelpMsg,
		}),
	)
}

// Measures describes the defined metrics that will be used by clients
type Measures struct {
	Grants        metrics.Counter
	Revokes       metrics.Counter
	Waits         metrics.Counter
	Selects       metrics.Counter
	ActiveSelects metrics.Gauge
}

// NewMeasures realizes desired metrics.  It's intended to be used alongside Metrics() for
// our older non uber/fx applications.
func NewMeasures(p provider.Provider) *Measures {
	return &Measures{
		Grants:        p.NewCounter(GrantCount),
		Revokes:       p.NewCounter(RevokeCount),
		Waits:         p.NewCounter(WaitCount),
		Selects:       p.NewCounter(SelectCount),
		ActiveSelects: p.NewGauge(ActiveSelects),
	}
}

// InstrumentOptions returns the options that report permit operations to these measures.
func (m *Measures) InstrumentOptions() []InstrumentOption {
	if m == nil {
		return nil
	}

	return []InstrumentOption{
		WithGrants(m.Grants),
		WithRevokes(m.Revokes),
		WithWaits(m.Waits),
	}
}
