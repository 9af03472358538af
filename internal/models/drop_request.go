package models

import "time"

// DropRequestStatus captures the workflow state of a drop request.
type DropRequestStatus string

const (
	DropRequestPending   DropRequestStatus = "pending"
	DropRequestApproved  DropRequestStatus = "approved"
	DropRequestRejected  DropRequestStatus = "rejected"
	DropRequestCancelled DropRequestStatus = "cancelled"
)

// ParseDropRequestStatus validates a status string.
func ParseDropRequestStatus(raw string) (DropRequestStatus, bool) {
	switch s := DropRequestStatus(raw); s {
	case DropRequestPending, DropRequestApproved, DropRequestRejected, DropRequestCancelled:
		return s, true
	}
	return "", false
}

// Terminal reports whether no further transition is allowed.
func (s DropRequestStatus) Terminal() bool {
	return s != DropRequestPending
}

// DropRequest is a student's ask to leave a registered course. Course is a snapshot
// taken at request time and is never refreshed from the catalog.
type DropRequest struct {
	ID          string            `json:"id"`
	Course      Course            `json:"course"`
	StudentID   string            `json:"studentId"`
	StudentName string            `json:"studentName"`
	RequestedAt time.Time         `json:"requestedAt"`
	Status      DropRequestStatus `json:"status"`
	ResolvedAt  *time.Time        `json:"resolvedAt,omitempty"`
	ResolvedBy  string            `json:"resolvedBy,omitempty"`
}

// DropRequestFilter narrows ledger listings.
type DropRequestFilter struct {
	StudentID string
	CourseID  int64
	Status    []DropRequestStatus
}

// Matches applies the filter to a request.
func (f DropRequestFilter) Matches(r DropRequest) bool {
	if f.StudentID != "" && r.StudentID != f.StudentID {
		return false
	}
	if f.CourseID != 0 && r.Course.ID != f.CourseID {
		return false
	}
	if len(f.Status) == 0 {
		return true
	}
	for _, s := range f.Status {
		if r.Status == s {
			return true
		}
	}
	return false
}
