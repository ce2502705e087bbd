// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ids generates identifiers used by scanning clients.

# Device IDs

NewDeviceID produces the opaque per-client identifier that scanners persist
and send with every submission:

	id, err := ids.NewDeviceID(time.Now())
	// device_1760668800000_3fa9c0b1e

# Submission Tokens

NewSubmissionToken produces a UUID that identifies a single submission
attempt. The server stores it in validations.submission_id so that a retried
request is recognized as a replay rather than a new scan.
*/
package ids
