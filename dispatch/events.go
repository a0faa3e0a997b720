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

import (
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/poiesic/indexfeed/core"
)

// snsEnvelope is the notification wrapper around the actual change event.
// The queue delivers the envelope as the message body; the event records
// are a JSON document inside its Message field.
type snsEnvelope struct {
	Message string `json:"Message"`
}

// changeEvent is the decoded inner message: either a set of object-change
// records or a sentinel event with no records.
type changeEvent struct {
	Records []events.S3EventRecord `json:"Records"`
	Event   string                 `json:"Event"`
}

// decodeMessage unwraps one queue message body into its change event.
func decodeMessage(body string) (*changeEvent, error) {
	var envelope snsEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, &DecodeError{Err: err}
	}
	var event changeEvent
	if err := json.Unmarshal([]byte(envelope.Message), &event); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &event, nil
}

// isTestEvent reports whether the event is the storage service's
// subscription-confirmation sentinel, which carries no records and is
// consumed silently.
func (e *changeEvent) isTestEvent() bool {
	return len(e.Records) == 0 && e.Event == core.EventTest
}

// recordSource identifies the object a single change record refers to,
// with all URL encoding undone.
type recordSource struct {
	EventName string
	Bucket    string
	Key       string
	Ext       string
	ETag      string
	VersionID string
	Size      int64
}

// parseRecord extracts and decodes the object coordinates of one record.
// Keys arrive form-encoded (spaces as '+'), bucket names and the rest
// percent-encoded only.
func parseRecord(rec events.S3EventRecord) (recordSource, error) {
	key, err := url.QueryUnescape(rec.S3.Object.Key)
	if err != nil {
		return recordSource{}, err
	}
	bucket, err := url.PathUnescape(rec.S3.Bucket.Name)
	if err != nil {
		return recordSource{}, err
	}
	versionID, err := url.PathUnescape(rec.S3.Object.VersionID)
	if err != nil {
		return recordSource{}, err
	}
	etag, err := url.PathUnescape(rec.S3.Object.ETag)
	if err != nil {
		return recordSource{}, err
	}
	return recordSource{
		EventName: rec.EventName,
		Bucket:    bucket,
		Key:       key,
		Ext:       strings.ToLower(filepath.Ext(key)),
		ETag:      etag,
		VersionID: versionID,
		Size:      rec.S3.Object.Size,
	}, nil
}
