// Copyright 2020 Anapaya Systems
// Copyright 2026 The relayshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics creates prometheus collectors and registers them with a
// configurable registry.
//
// Components take a Factory in their constructor so that tests can register
// into a private prometheus.Registry:
//
//	f := metrics.New(metrics.WithRegistry(prometheus.NewRegistry()))
//	c := f.NewCounter(prometheus.CounterOpts{Name: "x_total"})
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Factory.
type Option func(*options)

type options struct {
	registry  prometheus.Registerer
	namespace string
}

// WithRegistry registers all collectors with registry instead of the default
// registerer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithNamespace sets the namespace of all collectors that do not set one.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// Factory creates collectors and registers them.
type Factory struct {
	opts options
}

// New returns a Factory configured by opts.
func New(opts ...Option) Factory {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.DefaultRegisterer
	}
	return Factory{opts: o}
}

func (f Factory) namespace(ns string) string {
	if ns != "" {
		return ns
	}
	return f.opts.namespace
}

func (f Factory) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace = f.namespace(opts.Namespace)
	c := prometheus.NewCounter(opts)
	f.opts.registry.MustRegister(c)
	return c
}

func (f Factory) NewCounterVec(
	opts prometheus.CounterOpts,
	labelNames []string,
) *prometheus.CounterVec {
	opts.Namespace = f.namespace(opts.Namespace)
	c := prometheus.NewCounterVec(opts, labelNames)
	f.opts.registry.MustRegister(c)
	return c
}

func (f Factory) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace = f.namespace(opts.Namespace)
	g := prometheus.NewGauge(opts)
	f.opts.registry.MustRegister(g)
	return g
}

func (f Factory) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	opts.Namespace = f.namespace(opts.Namespace)
	g := prometheus.NewGaugeVec(opts, labelNames)
	f.opts.registry.MustRegister(g)
	return g
}

func (f Factory) NewGaugeFunc(
	opts prometheus.GaugeOpts,
	function func() float64,
) prometheus.GaugeFunc {
	opts.Namespace = f.namespace(opts.Namespace)
	g := prometheus.NewGaugeFunc(opts, function)
	f.opts.registry.MustRegister(g)
	return g
}

func (f Factory) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	opts.Namespace = f.namespace(opts.Namespace)
	h := prometheus.NewHistogram(opts)
	f.opts.registry.MustRegister(h)
	return h
}

// CounterInc increments c if it is not nil.
func CounterInc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// CounterAdd adds v to c if it is not nil.
func CounterAdd(c prometheus.Counter, v float64) {
	if c != nil {
		c.Add(v)
	}
}

// GaugeSet sets g to v if g is not nil.
func GaugeSet(g prometheus.Gauge, v float64) {
	if g != nil {
		g.Set(v)
	}
}

// HistogramObserve records v in h if h is not nil.
func HistogramObserve(h prometheus.Observer, v float64) {
	if h != nil {
		h.Observe(v)
	}
}
