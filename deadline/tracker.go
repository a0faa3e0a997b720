// Copyright 2025 Poiesic Systems
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


package deadline

import (
	"context"
	"log/slog"
	"time"
)

// lowWaterMark is the remaining time below which a warning is logged;
// bulk batches should be sized so flushes finish well above it.
const lowWaterMark = 30 * time.Second

// Tracker reports the time remaining before the execution context is
// forcibly terminated. Crossing zero stops further retries but does not
// interrupt in-flight calls.
type Tracker func() time.Duration

// FromContext derives a Tracker from the context's deadline. A context
// without a deadline never runs out.
func FromContext(ctx context.Context) Tracker {
	dl, ok := ctx.Deadline()
	if !ok {
		return Never()
	}
	return func() time.Duration {
		remaining := time.Until(dl)
		if remaining < 0 {
			return 0
		}
		if remaining < lowWaterMark {
			slog.Warn("execution deadline approaching, consider reducing bulk batch size",
				"remaining", remaining)
		}
		return remaining
	}
}

// Fixed returns a Tracker that always reports d. Useful for tests and for
// the local replay command, which has no hosted deadline.
func Fixed(d time.Duration) Tracker {
	return func() time.Duration { return d }
}

// Never returns a Tracker for contexts with no termination deadline.
func Never() Tracker {
	return Fixed(time.Hour)
}
