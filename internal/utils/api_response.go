package utils

import "time"

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// PendingResponse is the success=false shape of the merge protocol: a started or still
// running merge, not an error.
type PendingResponse struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	RemainingTime int64    `json:"remaining_time"`
	Progress      Progress `json:"progress"`
	Timing        Timing   `json:"timing"`
}

type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type Timing struct {
	WaitTimeMinutes int64 `json:"wait_time_minutes"`
	SpeedUpCost     int64 `json:"speed_up_cost,omitempty"`
}

func CreateErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: APIError{
			Code:    code,
			Message: message,
		},
	}
}

func CreateDetailedErrorResponse(code, message string, details map[string]any) ErrorResponse {
	resp := CreateErrorResponse(code, message)
	resp.Error.Details = details
	return resp
}

func CreateSuccessResponse(data any) SuccessResponse {
	return SuccessResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Timestamp: time.Now(),
		},
	}
}

func CreateMessageResponse(message string, data any) SuccessResponse {
	resp := CreateSuccessResponse(data)
	resp.Message = message
	return resp
}

func CreatePendingResponse(message string, remainingSeconds int64, progress int, waitMinutes int64) PendingResponse {
	return PendingResponse{
		Success:       false,
		Message:       message,
		RemainingTime: remainingSeconds,
		Progress: Progress{
			Current:    progress,
			Total:      100,
			Percentage: progress,
		},
		Timing: Timing{
			WaitTimeMinutes: waitMinutes,
		},
	}
}
