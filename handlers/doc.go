// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers for the Quickly Validate API.

ValidationHandler is created with a store and an idempotency guard:

	h := handlers.NewValidationHandler(st, guard)

# Endpoints

	POST /validations       → Submit (records a code/device pair)
	GET  /validations       → Count
	POST /validations/clear → Clear (deletes every record)
	GET  /validations/clear → ClearInfo (guidance only, deletes nothing)

# Duplicates

A device may validate a code once. Resubmitting the same pair, or replaying
a submission token (body submissionId or the Idempotency-Key header) whose
record is stored, is answered with 200 and "duplicate": true. A token still
pending in another request goes to the store, where the unique index decides. Store failures are reported as 500
with an opaque detail string; the underlying error is only logged.
*/
package handlers
