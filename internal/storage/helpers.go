package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && cErr != sql.ErrTxDone && *err == nil {
		*err = cErr
	}
}

func toSampleData(sessionID int64, s history.Sample) (*sampleData, error) {
	data := sampleData{
		SessionID: sessionID,
		Tag:       s.Tag,
		Timestamp: s.Timestamp.UnixNano(),
	}

	switch v := s.Value.(type) {
	case bool:
		data.BoolValue = sql.NullBool{Bool: v, Valid: true}
	case string:
		return nil, fmt.Errorf("tag '%s': unsupported value type %T", s.Tag, s.Value)
	default:
		f, ok := telemetry.Float(v)
		if !ok {
			return nil, fmt.Errorf("tag '%s': unsupported value type %T", s.Tag, s.Value)
		}
		data.NumValue = sql.NullFloat64{Float64: f, Valid: true}
	}

	return &data, nil
}

func fromSampleData(data *sampleData) history.Sample {
	s := history.Sample{
		Tag:       data.Tag,
		Timestamp: time.Unix(0, data.Timestamp).UTC(),
	}
	if data.BoolValue.Valid {
		s.Value = data.BoolValue.Bool
	} else {
		s.Value = data.NumValue.Float64
	}
	return s
}

// whereClause builds the sample filter shared by the count and select
// queries. Zero window bounds are left open.
func whereClause(q history.Query) (string, []any) {
	var conds []string
	var args []any

	if len(q.Tags) > 0 {
		conds = append(conds, "tag IN (?"+strings.Repeat(", ?", len(q.Tags)-1)+")")
		for _, tag := range q.Tags {
			args = append(args, tag)
		}
	}
	if !q.Start.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, q.End.UnixNano())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// stride returns the step between kept timestamps so that at most
// maxSamples samples spread over the whole window are returned
func stride(count, ticks int64, maxSamples int) int64 {
	if maxSamples <= 0 || count <= int64(maxSamples) || ticks == 0 {
		return 1
	}

	perTick := (count + ticks - 1) / ticks
	keep := max(int64(maxSamples)/perTick, 1)
	return (ticks + keep - 1) / keep
}
