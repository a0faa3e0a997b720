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


package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/poiesic/indexfeed/document"
)

// Config holds the runtime configuration of the indexing pipeline.
type Config struct {
	// ESHost is the base URL of the search cluster, including scheme.
	ESHost string

	// ESUsername and ESPassword authenticate bulk requests. Both empty
	// means unauthenticated access.
	ESUsername string
	ESPassword string

	// AWSRegion is the region of the bucket the notifications refer to.
	AWSRegion string

	// DeadLetterPath is the directory of the local dead-letter store.
	// Empty disables dead-letter recording.
	DeadLetterPath string

	// SystemMetaKey is the object-metadata key whose value carries the
	// nested system metadata block.
	SystemMetaKey string

	// BulkRateLimit caps bulk chunks per second. Zero disables the
	// limiter.
	BulkRateLimit float64

	// Workers is the number of messages processed concurrently.
	Workers int
}

// FromEnv builds a Config from the process environment. A .env file in
// the working directory is merged in first without overriding variables
// already set.
func FromEnv() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		ESHost:         os.Getenv("ES_HOST"),
		ESUsername:     os.Getenv("ES_USERNAME"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		AWSRegion:      os.Getenv("AWS_REGION"),
		DeadLetterPath: os.Getenv("DEADLETTER_PATH"),
		SystemMetaKey:  os.Getenv("SYSTEM_META_KEY"),
		Workers:        4,
	}

	if raw := os.Getenv("BULK_RATE_LIMIT"); raw != "" {
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("config: BULK_RATE_LIMIT must be a number")
		}
		cfg.BulkRateLimit = limit
	}
	if raw := os.Getenv("INDEXFEED_WORKERS"); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("config: INDEXFEED_WORKERS must be an integer")
		}
		cfg.Workers = workers
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize fills defaults and canonicalizes the host URL.
func (c *Config) Normalize() {
	if c.SystemMetaKey == "" {
		c.SystemMetaKey = document.DefaultSystemMetaKey
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	c.ESHost = strings.TrimSuffix(c.ESHost, "/")
}

// Validate checks that the configuration is complete enough to run.
func (c *Config) Validate() error {
	c.Normalize()

	if c.ESHost == "" {
		return errors.New("config: ES_HOST is required")
	}
	if !strings.HasPrefix(c.ESHost, "http://") && !strings.HasPrefix(c.ESHost, "https://") {
		return errors.New("config: ES_HOST must include a scheme")
	}
	if c.AWSRegion == "" {
		return errors.New("config: AWS_REGION is required")
	}
	if (c.ESUsername == "") != (c.ESPassword == "") {
		return errors.New("config: ES_USERNAME and ES_PASSWORD must be set together")
	}
	if c.BulkRateLimit < 0 {
		return errors.New("config: BULK_RATE_LIMIT must not be negative")
	}
	return nil
}
