package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// scanResult scans an InterviewResult from sql.Rows. Shared by the SQLite and
// Postgres backends, whose row shapes are identical.
func scanResult(rows *sql.Rows) (models.InterviewResult, error) {
	var res models.InterviewResult
	var state string
	var exchangesJSON string
	var startedAt, completedAt sql.NullTime

	err := rows.Scan(&res.ID, &res.Role, &state, &exchangesJSON, &startedAt, &completedAt)
	if err != nil {
		return res, fmt.Errorf("scan result failed: %w", err)
	}
	res.State = models.SessionState(state)
	if startedAt.Valid {
		res.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		res.CompletedAt = &completedAt.Time
	}
	if exchangesJSON != "" {
		if err := json.Unmarshal([]byte(exchangesJSON), &res.Exchanges); err != nil {
			return res, fmt.Errorf("unmarshal exchanges for result %s failed: %w", res.ID, err)
		}
	}
	return res, nil
}
