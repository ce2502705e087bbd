// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// LegacyDeviceID is backfilled into rows created before device tracking existed.
const LegacyDeviceID = "legacy"

// MaxFieldLength bounds code and device identifiers.
const MaxFieldLength = 255

// Request types

type SubmitValidationRequest struct {
	Code         string `json:"code"`
	DeviceID     string `json:"deviceId"`
	SubmissionID string `json:"submissionId,omitempty"`
}

// Response types

type SubmitValidationResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type CountResponse struct {
	Success bool  `json:"success"`
	Total   int64 `json:"total"`
}

type ClearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

type InfoResponse struct {
	Message string `json:"message"`
}

// Domain types

// Validation is one persisted scan tying a code to a device.
type Validation struct {
	ID           int64     `db:"id" json:"id"`
	CapturedAt   time.Time `db:"captured_at" json:"capturedAt"`
	Code         string    `db:"code" json:"code"`
	DeviceID     string    `db:"device_id" json:"deviceId"`
	SubmissionID *string   `db:"submission_id" json:"submissionId,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
