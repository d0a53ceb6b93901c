// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package permit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-kit/kit/metrics/generic"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/permit/xmetrics"
	"go.uber.org/fx"
)

func TestOutcomeOf(t *testing.T) {
	testData := []struct {
		err      error
		expected string
	}{
		{nil, AcquiredOutcome},
		{ErrTimeout, TimeoutOutcome},
		{context.DeadlineExceeded, TimeoutOutcome},
		{ErrInvalidObject, InvalidOutcome},
		{ErrResourceExhausted, ExhaustedOutcome},
		{context.Canceled, CanceledOutcome},
		{fmt.Errorf("%w: grant hook: %w", ErrInternalSync, errors.New("expected")), ErrorOutcome},
	}

	for i, record := range testData {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, record.expected, outcomeOf(record.err))
		})
	}
}

func TestMetrics(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	r, err := xmetrics.NewRegistry(nil, Metrics)
	require.NoError(err)
	require.NotNil(r)

	m := NewMeasures(r)
	require.NotNil(m)
	assert.Len(m.InstrumentOptions(), 3)
	assert.Nil((*Measures)(nil).InstrumentOptions())

	var (
		s       = NewSelector(WithSelectorMeasures(m))
		granted = New(Consuming, Granted)
	)

	_, err = s.Select([]*Permit{granted}, nil, past())
	assert.NoError(err)

	_, err = s.Select([]*Permit{granted}, nil, past())
	assert.Equal(ErrTimeout, err)

	_, err = s.Select([]*Permit{nil}, nil, past())
	assert.Equal(ErrInvalidObject, err)

	assert.Equal(1.0, testutil.ToFloat64(r.NewCounterVec(SelectCount).WithLabelValues(AcquiredOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(r.NewCounterVec(SelectCount).WithLabelValues(TimeoutOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(r.NewCounterVec(SelectCount).WithLabelValues(InvalidOutcome)))
	assert.Equal(0.0, testutil.ToFloat64(r.NewGaugeVec(ActiveSelects).WithLabelValues()))
}

func TestProvideMetrics(t *testing.T) {
	assert.NotNil(t, ProvideMetrics())
	assert.Implements(t, (*fx.Option)(nil), ProvideMetrics())
}

func testInstrumentCounts(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
		grants  = generic.NewCounter("grants")
		revokes = generic.NewCounter("revokes")
	)

	r, err := xmetrics.NewRegistry(nil, Metrics)
	require.NoError(err)

	p := Instrument(
		New(Consuming, Ungranted),
		WithGrants(grants),
		WithRevokes(revokes),
		WithWaits(r.NewCounter(WaitCount)),
	)

	assert.NoError(p.Grant())
	assert.NoError(p.TryWait())
	assert.Equal(ErrTimeout, p.TryWait())
	assert.NoError(p.Revoke())
	assert.Equal(ErrTimeout, p.TimedWait(nil, past()))
	assert.NoError(p.Grant())
	assert.NoError(p.Wait(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(p.WaitCtx(ctx, nil), context.Canceled)

	assert.NoError(p.Destroy())
	assert.Equal(ErrInvalidObject, p.Grant())
	assert.Equal(ErrInvalidObject, p.Revoke())
	assert.Equal(ErrInvalidObject, p.TryWait())

	assert.Equal(2.0, grants.Value())
	assert.Equal(1.0, revokes.Value())
	assert.Equal(2.0, testutil.ToFloat64(r.NewCounterVec(WaitCount).WithLabelValues(AcquiredOutcome)))
	assert.Equal(2.0, testutil.ToFloat64(r.NewCounterVec(WaitCount).WithLabelValues(TimeoutOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(r.NewCounterVec(WaitCount).WithLabelValues(CanceledOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(r.NewCounterVec(WaitCount).WithLabelValues(InvalidOutcome)))
}

func testInstrumentDefaults(t *testing.T) {
	assert := assert.New(t)
	p := Instrument(NewSimple(Granted), WithGrants(nil), WithRevokes(nil), WithWaits(nil))
	assert.NoError(p.TryWait())
	assert.NoError(p.Grant())
	assert.NoError(p.Revoke())
	assert.NoError(p.Destroy())
}

func TestInstrument(t *testing.T) {
	t.Run("Counts", testInstrumentCounts)
	t.Run("Defaults", testInstrumentDefaults)
}
