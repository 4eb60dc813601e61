package handler

import (
	"time"

	"carriercheck/internal/domain"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type createResponse struct {
	OK         bool           `json:"ok"`
	RequestID  string         `json:"request_id"`
	ReceivedAt time.Time      `json:"received_at"`
	Summary    domain.Summary `json:"summary"`
}

type enrichResponse struct {
	OK        bool      `json:"ok"`
	RequestID string    `json:"request_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type resultResponse struct {
	OK     bool           `json:"ok"`
	Result *domain.Result `json:"result"`
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	Store string `json:"store"`
}
