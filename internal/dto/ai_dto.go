package dto

import "time"

type AIStatusResponse struct {
	Available     bool      `json:"available"`
	QuotaExceeded bool      `json:"quotaExceeded"`
	Code          string    `json:"code,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Since         time.Time `json:"since,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
}
