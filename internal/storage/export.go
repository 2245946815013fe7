package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pidsim/internal/pid"
)

// ExportData is a run's metadata together with its full trace.
type ExportData struct {
	Metadata RunMetadata
	Records  []pid.Record
}

type exportJSON struct {
	Metadata RunMetadata   `json:"metadata"`
	Records  []traceRecord `json:"records"`
}

func (d ExportData) MarshalJSON() ([]byte, error) {
	out := exportJSON{Metadata: d.Metadata, Records: make([]traceRecord, len(d.Records))}
	for i, r := range d.Records {
		out.Records[i] = newTraceRecord(r)
	}
	return json.Marshal(out)
}

func (d *ExportData) UnmarshalJSON(data []byte) error {
	var in exportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Metadata = in.Metadata
	d.Records = make([]pid.Record, len(in.Records))
	for i, r := range in.Records {
		d.Records[i] = r.record()
	}
	return nil
}

// ExportJSON writes a run's metadata and full trace as indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	records, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Metadata: *meta, Records: records})
}

// ExportCSV copies a run's trace to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	records, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}
	return WriteTraceCSV(w, records)
}
