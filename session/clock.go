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

package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotLaunched  = errors.New("not launched")
	ErrInvalidClock = errors.New("invalid session clock")
)

// Clock maps wall-clock time onto session windows. Window 0 begins at
// Genesis and each window lasts WindowLength. DayLength is the granularity
// used for partial-window ballot credit.
type Clock struct {
	Genesis      time.Time
	WindowLength time.Duration
	DayLength    time.Duration
}

func (c Clock) Validate() error {
	if c.DayLength <= 0 {
		return fmt.Errorf("%w: day length must be positive", ErrInvalidClock)
	}
	if c.WindowLength < c.DayLength {
		return fmt.Errorf(
			"%w: window length %s shorter than day length %s",
			ErrInvalidClock,
			c.WindowLength,
			c.DayLength,
		)
	}
	if c.WindowLength%c.DayLength != 0 {
		return fmt.Errorf(
			"%w: window length %s is not a multiple of day length %s",
			ErrInvalidClock,
			c.WindowLength,
			c.DayLength,
		)
	}
	return nil
}

// Launched reports whether now is strictly after genesis
func (c Clock) Launched(now time.Time) bool {
	return now.After(c.Genesis)
}

// Window returns the window containing now
func (c Clock) Window(now time.Time) (uint32, error) {
	if !c.Launched(now) {
		return 0, ErrNotLaunched
	}
	elapsed := now.Sub(c.Genesis)
	return uint32(elapsed / c.WindowLength), nil // #nosec G115
}

// WindowStart returns the time at which the given window begins
func (c Clock) WindowStart(window uint32) time.Time {
	return c.Genesis.Add(time.Duration(window) * c.WindowLength)
}

func (c Clock) DaysPerWindow() uint64 {
	return uint64(c.WindowLength / c.DayLength) // #nosec G115
}

// RemainingDays returns the number of whole days left in the window,
// counting the day now falls in
func (c Clock) RemainingDays(now time.Time, window uint32) uint64 {
	elapsed := now.Sub(c.WindowStart(window))
	if elapsed < 0 {
		return c.DaysPerWindow()
	}
	days := uint64(elapsed / c.DayLength) // #nosec G115
	perWindow := c.DaysPerWindow()
	if days >= perWindow {
		return 0
	}
	return perWindow - days
}
