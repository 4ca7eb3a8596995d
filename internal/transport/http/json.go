package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/milad/desconotify/internal/domain"
)

type readingJSON struct {
	Meter                   string      `json:"meter"`
	AccountNo               string      `json:"accountNo"`
	MeterNo                 string      `json:"meterNo"`
	Balance                 json.Number `json:"balance"`
	CurrentMonthConsumption json.Number `json:"currentMonthConsumption"`
	ReadingTime             string      `json:"readingTime"`
	CheckedAt               string      `json:"checkedAt"`
}

type listReadingsResponseJSON struct {
	Readings []readingJSON `json:"readings"`
}

type failureJSON struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type runJSON struct {
	RunID      string        `json:"runId"`
	Sent       int           `json:"sent"`
	Failures   []failureJSON `json:"failures"`
	StartedAt  string        `json:"startedAt"`
	FinishedAt string        `json:"finishedAt"`
}

type triggerResponseJSON struct {
	Queued bool `json:"queued"`
}

type apiErrorJSON struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func toReadingJSON(s domain.Snapshot) readingJSON {
	return readingJSON{
		Meter:                   s.Meter,
		AccountNo:               s.Reading.AccountNo,
		MeterNo:                 s.Reading.MeterNo,
		Balance:                 json.Number(s.Reading.Balance.String()),
		CurrentMonthConsumption: json.Number(s.Reading.CurrentMonthConsumption.String()),
		ReadingTime:             s.Reading.ReadingTime,
		CheckedAt:               formatTime(s.CheckedAt),
	}
}

func toRunJSON(r domain.RunResult) runJSON {
	failures := make([]failureJSON, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, failureJSON{Name: f.Name, Reason: f.Reason})
	}
	return runJSON{
		RunID:      r.RunID,
		Sent:       r.Sent,
		Failures:   failures,
		StartedAt:  formatTime(r.StartedAt),
		FinishedAt: formatTime(r.FinishedAt),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
