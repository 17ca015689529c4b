// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package health

import "time"

// Status exposes the runtime health of a single provider for monitoring
// and operator visibility. All fields are point-in-time snapshots safe
// to serialize to JSON.
type Status struct {
	Provider            string     `json:"provider"`
	Priority            int        `json:"priority"`
	Available           bool       `json:"available"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastHealthCheck     *time.Time `json:"last_health_check,omitempty"`
}
