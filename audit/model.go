// audit/model.go
package audit

import "time"

// AccessLog is one recorded access-control decision.
type AccessLog struct {
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	Operation string    `json:"operation"`
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
	Tier      string    `json:"tier"`
}
