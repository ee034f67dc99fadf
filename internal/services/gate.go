package services

import (
	"time"
)

// GateStatus reports whether a user may upload right now and, if not,
// when the gate opens.
type GateStatus struct {
	CanUpload     bool       `json:"can_upload"`
	NextAllowedAt *time.Time `json:"next_allowed_at,omitempty"`
}

// CanUploadAt reports whether a user whose previous upload happened at
// last may upload again at now. A user who has never uploaded passes.
func CanUploadAt(now time.Time, last *time.Time, intervalHours int) bool {
	if last == nil {
		return true
	}
	return !now.Before(last.Add(time.Duration(intervalHours) * time.Hour))
}

// NextAllowedAt returns the moment the upload gate opens, or nil if it
// is already open for a user who has never uploaded.
func NextAllowedAt(last *time.Time, intervalHours int) *time.Time {
	if last == nil {
		return nil
	}
	at := last.Add(time.Duration(intervalHours) * time.Hour)
	return &at
}

// GateAt computes the gate status at the given instant.
func GateAt(now time.Time, last *time.Time, intervalHours int) GateStatus {
	if CanUploadAt(now, last, intervalHours) {
		return GateStatus{CanUpload: true}
	}
	return GateStatus{CanUpload: false, NextAllowedAt: NextAllowedAt(last, intervalHours)}
}

// PairKey returns the shared-board key for two matched users. The key is
// order-independent so both sides address the same board.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
