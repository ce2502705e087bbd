// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-validate/idempotency"
	"github.com/danielhkuo/quickly-validate/ids"
	"github.com/danielhkuo/quickly-validate/middleware"
	"github.com/danielhkuo/quickly-validate/models"
	"github.com/danielhkuo/quickly-validate/store"
)

// IdempotencyHeader carries the submission token when the body does not.
const IdempotencyHeader = "Idempotency-Key"

const (
	msgValidated      = "code validated"
	msgAlreadyValid   = "code already validated for this device"
	msgCleared        = "all validations deleted"
	msgClearGuidance  = "send a POST to this endpoint to delete all validations"
	msgInternal       = "internal server error"
	detailUnavailable = "store unavailable"
	detailUnexpected  = "unexpected store error"
)

// ValidationStore is the persistence the handlers need.
type ValidationStore interface {
	Insert(ctx context.Context, v models.Validation) (store.InsertResult, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// InputError reports a missing or malformed request field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return e.Message
}

type ValidationHandler struct {
	store ValidationStore
	guard idempotency.Guard
}

func NewValidationHandler(s ValidationStore, guard idempotency.Guard) *ValidationHandler {
	if guard == nil {
		guard = idempotency.NopGuard{}
	}
	return &ValidationHandler{store: s, guard: guard}
}

// Submit handles POST /validations
// Records a scan for a device. Repeating an already recorded pair is a success with duplicate=true.
func (h *ValidationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitValidationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SubmissionID == "" {
		req.SubmissionID = r.Header.Get(IdempotencyHeader)
	}

	v, err := validateSubmission(req)
	if err != nil {
		slog.Info("rejected submission", "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	owned := false
	if v.SubmissionID != nil {
		state, err := h.guard.Claim(ctx, *v.SubmissionID)
		switch {
		case err != nil:
			// the submission_id column still catches replays
			slog.Warn("submission guard unavailable", "error", err)
		case state == idempotency.Done:
			slog.Info("replayed submission", "submission_id", *v.SubmissionID, "device_id", v.DeviceID)
			respondDuplicate(w)
			return
		case state == idempotency.Pending:
			// the owner may still fail; let the unique index decide
			slog.Info("submission token in progress", "submission_id", *v.SubmissionID, "device_id", v.DeviceID)
		default:
			owned = true
		}
	}

	res, err := h.store.Insert(ctx, v)
	if err != nil {
		if owned {
			if rerr := h.guard.Release(ctx, *v.SubmissionID); rerr != nil {
				slog.Warn("failed to release submission token", "error", rerr)
			}
		}
		slog.Error("failed to insert validation", "error", err, "device_id", v.DeviceID)
		middleware.ErrorWithDetails(w, http.StatusInternalServerError, msgInternal, storeErrorDetail(err))
		return
	}

	if v.SubmissionID != nil {
		if cerr := h.guard.Complete(ctx, *v.SubmissionID); cerr != nil {
			slog.Warn("failed to complete submission token", "error", cerr)
		}
	}

	if res.Outcome == store.OutcomeDuplicate {
		slog.Info("duplicate validation", "device_id", v.DeviceID)
		respondDuplicate(w)
		return
	}

	slog.Info("validation recorded", "id", res.ID, "device_id", v.DeviceID)
	middleware.JSONResponse(w, http.StatusOK, models.SubmitValidationResponse{
		Success: true,
		Message: msgValidated,
	})
}

// Count handles GET /validations
func (h *ValidationHandler) Count(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.Count(r.Context())
	if err != nil {
		slog.Error("failed to count validations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msgInternal)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CountResponse{
		Success: true,
		Total:   total,
	})
}

// Clear handles POST /validations/clear
// Deletes every validation unconditionally.
func (h *ValidationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.DeleteAll(r.Context())
	if err != nil {
		slog.Error("failed to clear validations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msgInternal)
		return
	}

	slog.Info("validations cleared", "deleted", deleted, "remote", middleware.GetClientIP(r))
	middleware.JSONResponse(w, http.StatusOK, models.ClearResponse{
		Success: true,
		Message: msgCleared,
		Deleted: deleted,
	})
}

// ClearInfo handles GET /validations/clear
func (h *ValidationHandler) ClearInfo(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.InfoResponse{Message: msgClearGuidance})
}

func respondDuplicate(w http.ResponseWriter) {
	middleware.JSONResponse(w, http.StatusOK, models.SubmitValidationResponse{
		Success:   true,
		Message:   msgAlreadyValid,
		Duplicate: true,
	})
}

// validateSubmission trims and checks the request before any store access.
func validateSubmission(req models.SubmitValidationRequest) (models.Validation, error) {
	code := strings.TrimSpace(req.Code)
	deviceID := strings.TrimSpace(req.DeviceID)

	if code == "" || deviceID == "" {
		field := "code"
		if code != "" {
			field = "deviceId"
		}
		return models.Validation{}, &InputError{Field: field, Message: "code and deviceId are required"}
	}
	if utf8.RuneCountInString(code) > models.MaxFieldLength {
		return models.Validation{}, &InputError{Field: "code", Message: "code is too long"}
	}
	if utf8.RuneCountInString(deviceID) > models.MaxFieldLength {
		return models.Validation{}, &InputError{Field: "deviceId", Message: "deviceId is too long"}
	}

	v := models.Validation{Code: code, DeviceID: deviceID}
	if req.SubmissionID != "" {
		token, err := ids.ParseSubmissionToken(req.SubmissionID)
		if err != nil {
			return models.Validation{}, &InputError{Field: "submissionId", Message: "submissionId must be a UUID"}
		}
		v.SubmissionID = &token
	}
	return v, nil
}

func storeErrorDetail(err error) string {
	if errors.Is(err, store.ErrUnavailable) {
		return detailUnavailable
	}
	return detailUnexpected
}
