package model

import (
	"encoding/json"
	"time"
)

// CalendarEvent is one time range selected on the calendar. Start and End are
// kept as received so results can echo them back unchanged.
type CalendarEvent struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Comment string `json:"comment,omitempty"`
}

// WorklogRequest is the worklog entry derived from a CalendarEvent.
type WorklogRequest struct {
	IssueKey         string
	TimeSpentMinutes int
	Started          time.Time
	Comment          string
	// AdjustEstimate is one of new, leave, manual, auto.
	AdjustEstimate string
	NewEstimate    string
}

// WorklogResult reports what happened to a single event.
type WorklogResult struct {
	Success  bool            `json:"success"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// SubmissionOutcome is the response envelope of a batch submission.
// Success means the batch was processed, not that every event succeeded.
type SubmissionOutcome struct {
	Success bool            `json:"success"`
	Results []WorklogResult `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ValidationResult is the outcome of a credential check.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// MarshalJSON always emits a results array for processed batches (an empty
// batch yields "results": []) and omits it when the envelope carries an error.
func (o SubmissionOutcome) MarshalJSON() ([]byte, error) {
	type envelope struct {
		Success bool             `json:"success"`
		Results *[]WorklogResult `json:"results,omitempty"`
		Error   string           `json:"error,omitempty"`
	}
	e := envelope{Success: o.Success, Error: o.Error}
	if o.Error == "" {
		results := o.Results
		if results == nil {
			results = []WorklogResult{}
		}
		e.Results = &results
	}
	return json.Marshal(e)
}
