// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - SubmitValidationRequest: code, deviceId, submissionId (optional)

# Response Types

  - SubmitValidationResponse: success, message, duplicate
  - CountResponse: success, total
  - ClearResponse: success, message, deleted
  - InfoResponse: message
  - ErrorResponse: error, details

# Domain Types

  - Validation: one scan record (id, captured_at, code, device_id, submission_id)

# Constants

	LegacyDeviceID = "legacy"
	MaxFieldLength = 255
*/
package models
