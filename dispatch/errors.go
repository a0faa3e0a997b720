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


package dispatch

import "fmt"

// DecodeError marks a message body the dispatcher could not interpret.
// It propagates out of Handle so the transport redelivers the message.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding notification: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RecordError describes the failure of a single change record. Record
// failures are absorbed per record and logged; they never fail the
// enclosing message.
type RecordError struct {
	EventName string
	Bucket    string
	Key       string
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("processing %s for %s/%s: %v", e.EventName, e.Bucket, e.Key, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
