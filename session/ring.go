// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package session tracks time-windowed ballot expiry. The Ring holds one
// slot per live window; each slot carries the ballots that stop counting
// once the ring moves past that window.
package session

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

const DefaultCapacity = 24

var (
	ErrWindowOutOfRange = errors.New("window outside of ring")
	ErrSlotOutOfRange   = errors.New("slot index outside of ring")
	ErrNotInitialized   = errors.New("ring not initialized")
	ErrUnbalanced       = errors.New("ring total does not match slot sum")
)

// Info is a single ring slot
type Info struct {
	SessionID    uint32
	ExpireAmount uint256.Int
}

// Ring is a fixed-capacity circular buffer of windows. Once initialized,
// the slots starting at Head hold consecutive window ids and TotalBallot
// equals the sum of their ExpireAmount.
type Ring struct {
	Slots       []Info
	Head        int
	Initialized bool
	TotalBallot uint256.Int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		Slots: make([]Info, capacity),
	}
}

func (r *Ring) Capacity() int {
	return len(r.Slots)
}

// Current returns the window id at the head of the ring
func (r *Ring) Current() (uint32, bool) {
	if !r.Initialized {
		return 0, false
	}
	return r.Slots[r.Head].SessionID, true
}

// Refresh advances the ring so that its head holds window. Slots for
// windows before window are expired and recycled. The returned list holds
// every window that became addressable during this call, in order.
func (r *Ring) Refresh(window uint32) []uint32 {
	capacity := uint32(r.Capacity()) // #nosec G115
	if r.Initialized {
		cur := r.Slots[r.Head].SessionID
		if window <= cur {
			return nil
		}
		if window-cur < capacity {
			var opened []uint32
			for r.Slots[r.Head].SessionID < window {
				slot := &r.Slots[r.Head]
				r.TotalBallot.Sub(&r.TotalBallot, &slot.ExpireAmount)
				slot.ExpireAmount.Clear()
				slot.SessionID += capacity
				opened = append(opened, slot.SessionID)
				r.Head = (r.Head + 1) % r.Capacity()
			}
			return opened
		}
	}
	// Fresh ring, or stale by a full revolution or more
	opened := make([]uint32, 0, capacity)
	r.TotalBallot.Clear()
	for i := range r.Slots {
		id := window + uint32(i) // #nosec G115
		r.Slots[i] = Info{SessionID: id}
		opened = append(opened, id)
	}
	r.Head = 0
	r.Initialized = true
	return opened
}

func (r *Ring) slotIndex(window uint32) (int, error) {
	if !r.Initialized {
		return 0, ErrNotInitialized
	}
	cur := r.Slots[r.Head].SessionID
	if window < cur || window-cur >= uint32(r.Capacity()) { // #nosec G115
		return 0, fmt.Errorf(
			"%w: window %d, ring holds %d-%d",
			ErrWindowOutOfRange,
			window,
			cur,
			cur+uint32(r.Capacity())-1, // #nosec G115
		)
	}
	return (r.Head + int(window-cur)) % r.Capacity(), nil
}

// Contains reports whether window is currently held by the ring
func (r *Ring) Contains(window uint32) bool {
	_, err := r.slotIndex(window)
	return err == nil
}

// AddExpire credits amount to the slot holding window and to the live total
func (r *Ring) AddExpire(window uint32, amount *uint256.Int) error {
	idx, err := r.slotIndex(window)
	if err != nil {
		return err
	}
	r.Slots[idx].ExpireAmount.Add(&r.Slots[idx].ExpireAmount, amount)
	r.TotalBallot.Add(&r.TotalBallot, amount)
	return nil
}

// Slot returns the raw slot at the given physical index
func (r *Ring) Slot(idx int) (Info, error) {
	if idx < 0 || idx >= r.Capacity() {
		return Info{}, fmt.Errorf("%w: %d", ErrSlotOutOfRange, idx)
	}
	return r.Slots[idx], nil
}

// LiveTotal returns the total ballots that would remain live after a
// Refresh to window, without modifying the ring
func (r *Ring) LiveTotal(window uint32) *uint256.Int {
	ret := new(uint256.Int)
	if !r.Initialized {
		return ret
	}
	for _, slot := range r.Slots {
		if slot.SessionID >= window {
			ret.Add(ret, &slot.ExpireAmount)
		}
	}
	return ret
}

// Clone returns a deep copy of the ring
func (r *Ring) Clone() *Ring {
	ret := &Ring{
		Slots:       make([]Info, len(r.Slots)),
		Head:        r.Head,
		Initialized: r.Initialized,
		TotalBallot: r.TotalBallot,
	}
	copy(ret.Slots, r.Slots)
	return ret
}

// Check verifies the conservation invariant
func (r *Ring) Check() error {
	sum := new(uint256.Int)
	for _, slot := range r.Slots {
		sum.Add(sum, &slot.ExpireAmount)
	}
	if !sum.Eq(&r.TotalBallot) {
		return fmt.Errorf(
			"%w: total %s, slots %s",
			ErrUnbalanced,
			r.TotalBallot.Dec(),
			sum.Dec(),
		)
	}
	return nil
}
