package sinks

import (
	"time"

	"github.com/tara-sullivan/oda-utils/pkg/soda"
)

// Snapshot is the payload delivered downstream for one dataset pull.
type Snapshot struct {
	DatasetID   string        `json:"dataset_id"`
	DatasetName string        `json:"dataset_name"`
	Host        string        `json:"host"`
	RowCount    int           `json:"row_count"`
	Records     []soda.Record `json:"records"`
	PulledAt    time.Time     `json:"pulled_at"`
}

// NewSnapshot constructs a Snapshot for the given dataset and records.
func NewSnapshot(datasetID, datasetName, host string, records []soda.Record) Snapshot {
	return Snapshot{
		DatasetID:   datasetID,
		DatasetName: datasetName,
		Host:        host,
		RowCount:    len(records),
		Records:     records,
		PulledAt:    time.Now().UTC(),
	}
}
