package storage

import (
	"database/sql"
	"time"
)

// Session is a single recording session of a telemetry source
type Session struct {
	ID        int64     `json:"ID"`                      // Unique identifier for the session
	StartTime time.Time `json:"startTime"`               // When the recording began
	Source    string    `json:"source"`                  // Feed the readings came from (serial port path, "stdin")
	Config    *string   `json:"config,string,omitempty"` // Optional recorder configuration in JSON format
}

type sampleData struct {
	SessionID int64
	Tag       string
	Timestamp int64
	NumValue  sql.NullFloat64
	BoolValue sql.NullBool
}
