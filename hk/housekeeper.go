// Package hk provides a single shared periodic-task registry: other
// subsystems register a cleanup/maintenance callback and an interval, and
// the housekeeper drives them all off one ticker instead of each owning an
// ad hoc goroutine+timer. Used by Admission's per-IP table cleanup (spec
// §4.5), Throttling's lockout-expiry sweep (§4.4), and Buffer Pool metric
// sampling and shrink evaluation (§4.6); Buffer Pool growth is triggered by
// Rent itself, not by the housekeeper.
//
// Modeled on the teacher's stream collector (transport/collect.go): a
// min-heap of registered entries ordered by next-fire time, driven by one
// dfltTick ticker.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"container/heap"
	"sync"
	"time"

	"github.com/nalix-net/nalix/cmn/cos"
	"github.com/nalix-net/nalix/cmn/debug"
	"github.com/nalix-net/nalix/cmn/nlog"
)

const dfltTick = time.Second

// NameSuffix mirrors the teacher's convention of namespacing a registered
// job's name by the subsystem + endpoint it belongs to.
const NameSuffix = ".hk"

type (
	// Func runs one housekeeping pass and returns the delay until it
	// should run again (allows self-adjusting intervals, e.g. backing
	// off cleanup frequency when a table is empty).
	Func func() time.Duration

	entry struct {
		name  string
		f     Func
		fire  time.Time
		index int
	}

	housekeeper struct {
		mu      sync.Mutex
		byName  map[string]*entry
		heap    []*entry
		ctrlCh  chan ctrlMsg
		stopCh  cos.StopCh
		started cos.StopCh // closed once Run's loop is ready to accept registrations
	}

	ctrlMsg struct {
		add bool
		e   *entry
		nm  string
	}
)

var DefaultHK = New()

func New() *housekeeper {
	hk := &housekeeper{
		byName: make(map[string]*entry, 16),
		heap:   make([]*entry, 0, 16),
		ctrlCh: make(chan ctrlMsg, 64),
	}
	hk.stopCh.Init()
	hk.started.Init()
	return hk
}

// TestInit resets DefaultHK for test isolation (construct a private
// runtime per test case rather than depend on process-wide global state).
func TestInit() { DefaultHK = New() }

func WaitStarted() { <-DefaultHK.started.Listen() }

// Reg registers a named periodic job. A duplicate name replaces the prior
// registration (the newer call wins), matching the housekeeper's role as a
// single shared registry rather than an append-only log.
func Reg(name string, f Func, interval time.Duration) {
	DefaultHK.reg(name, f, interval)
}

func Unreg(name string) { DefaultHK.unreg(name) }

func (hk *housekeeper) reg(name string, f Func, interval time.Duration) {
	e := &entry{name: name, f: f, fire: time.Now().Add(interval)}
	hk.ctrlCh <- ctrlMsg{add: true, e: e}
}

func (hk *housekeeper) unreg(name string) {
	hk.ctrlCh <- ctrlMsg{add: false, nm: name}
}

func (*housekeeper) Name() string { return "housekeeper" }

// Run drives every registered job off a single ticker until Stop is
// called. Safe to run exactly once per housekeeper instance.
func (hk *housekeeper) Run() error {
	heap.Init(hk)
	ticker := time.NewTicker(dfltTick)
	defer ticker.Stop()
	hk.started.Close()

	for {
		select {
		case <-ticker.C:
			hk.fire(time.Now())
		case msg := <-hk.ctrlCh:
			hk.control(msg)
		case <-hk.stopCh.Listen():
			return nil
		}
	}
}

func (hk *housekeeper) Stop(error) { hk.stopCh.Close() }

func (hk *housekeeper) control(msg ctrlMsg) {
	if msg.add {
		if old, ok := hk.byName[msg.e.name]; ok {
			heap.Remove(hk, old.index)
		}
		hk.byName[msg.e.name] = msg.e
		heap.Push(hk, msg.e)
		return
	}
	if old, ok := hk.byName[msg.nm]; ok {
		delete(hk.byName, msg.nm)
		heap.Remove(hk, old.index)
	}
}

func (hk *housekeeper) fire(now time.Time) {
	for len(hk.heap) > 0 && !hk.heap[0].fire.After(now) {
		e := heap.Pop(hk).(*entry)
		delete(hk.byName, e.name)
		next := hk.run1(e, now)
		if next <= 0 {
			continue // job asked to be dropped
		}
		e.fire = now.Add(next)
		hk.byName[e.name] = e
		heap.Push(hk, e)
	}
}

func (hk *housekeeper) run1(e *entry, now time.Time) (next time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			nlog.Errorf("hk job %q panicked: %v", e.name, r)
			next = dfltTick
		}
	}()
	return e.f()
}

// container/heap.Interface, ordered by next-fire time (min-heap)
func (hk *housekeeper) Len() int { return len(hk.heap) }
func (hk *housekeeper) Less(i, j int) bool {
	return hk.heap[i].fire.Before(hk.heap[j].fire)
}
func (hk *housekeeper) Swap(i, j int) {
	hk.heap[i], hk.heap[j] = hk.heap[j], hk.heap[i]
	hk.heap[i].index, hk.heap[j].index = i, j
}
func (hk *housekeeper) Push(x any) {
	e := x.(*entry)
	e.index = len(hk.heap)
	hk.heap = append(hk.heap, e)
}
func (hk *housekeeper) Pop() any {
	old := hk.heap
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	hk.heap = old[:n-1]
	debug.Assert(e.index == n-1)
	return e
}
