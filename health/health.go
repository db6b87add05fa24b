// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type ClockCheck struct {
	Offset    time.Duration `json:"offset"`
	CheckedAt time.Time     `json:"checkedAt"`
	Drifted   bool          `json:"drifted"`
}

type Status struct {
	Healthy    bool        `json:"healthy"`
	Ready      bool        `json:"ready"`
	ClockCheck *ClockCheck `json:"clockCheck"`
}

// Health tracks whether the node can serve operations.
// The node is healthy once the ledger is ready and the last clock check,
// if any, found no drift beyond maxDrift.
type Health struct {
	lock     sync.RWMutex
	clock    clockwork.Clock
	maxDrift time.Duration
	ready    bool
	check    *ClockCheck
}

func New(clock clockwork.Clock, maxDrift time.Duration) *Health {
	return &Health{clock: clock, maxDrift: maxDrift}
}

// Ready marks the ledger as opened and seeded.
func (h *Health) Ready() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.ready = true
}

// ClockChecked records the offset of the local clock against a time server.
// It returns true if the offset exceeds the allowed drift.
func (h *Health) ClockChecked(offset time.Duration) bool {
	h.lock.Lock()
	defer h.lock.Unlock()

	drifted := offset > h.maxDrift || -offset > h.maxDrift
	h.check = &ClockCheck{
		Offset:    offset,
		CheckedAt: h.clock.Now(),
		Drifted:   drifted,
	}
	return drifted
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	var check *ClockCheck
	if h.check != nil {
		c := *h.check
		check = &c
	}
	return &Status{
		Healthy:    h.ready && (check == nil || !check.Drifted),
		Ready:      h.ready,
		ClockCheck: check,
	}
}
