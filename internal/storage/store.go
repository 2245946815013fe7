package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/pid"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var traceHeader = []string{
	"step", "setpoint", "error", "error_prev1", "error_prev2", "delta",
	"integral", "gate", "raw_output", "output", "actual",
}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Variant   string             `json:"variant"`
	Timestamp time.Time          `json:"timestamp"`
	Setpoint  float64            `json:"setpoint"`
	Gains     pid.Gains          `json:"gains"`
	Nominal   pid.Gains          `json:"nominal_gains"`
	Final     float64            `json:"final"`
	Steps     int                `json:"steps"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save stores result under a generated run ID.
func (s *Store) Save(result *experiment.Result) (string, error) {
	return s.SaveAs(result, "")
}

// SaveAs stores result under runID, generating one when runID is empty. An
// existing run with the same ID is overwritten. Files are staged in a
// temporary directory so a failed save leaves nothing behind.
func (s *Store) SaveAs(result *experiment.Result, runID string) (string, error) {
	ts := s.now()
	if runID == "" {
		runID = fmt.Sprintf("%s_%d", result.Variant, ts.UnixNano())
	}
	if runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return "", fmt.Errorf("invalid run id %q", runID)
	}

	if err := s.Init(); err != nil {
		return "", err
	}
	staging, err := os.MkdirTemp(s.baseDir, ".staging-"+runID+"-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	meta := RunMetadata{
		ID:        runID,
		Variant:   result.Variant.String(),
		Timestamp: ts,
		Setpoint:  result.Setpoint,
		Gains:     result.Gains,
		Nominal:   result.Nominal,
		Final:     result.Final,
		Steps:     len(result.Records),
		Metrics:   result.Metrics,
	}
	if err := writeFile(filepath.Join(staging, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", fmt.Errorf("write metadata of %s: %w", runID, err)
	}
	if err := writeFile(filepath.Join(staging, traceFile), func(w io.Writer) error {
		return WriteTraceCSV(w, result.Records)
	}); err != nil {
		return "", fmt.Errorf("write trace of %s: %w", runID, err)
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.RemoveAll(runDir); err != nil {
		return "", err
	}
	if err := os.Rename(staging, runDir); err != nil {
		return "", err
	}
	return runID, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTraceCSV writes records with a header row.
func WriteTraceCSV(out io.Writer, records []pid.Record) error {
	w := csv.NewWriter(out)
	if err := w.Write(traceHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Step), f(r.Setpoint), f(r.Error), f(r.ErrorPrev1), f(r.ErrorPrev2),
			f(r.Delta), f(r.Integral), f(r.Gate), f(r.RawOutput), f(r.Output), f(r.Actual),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]pid.Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(traceHeader)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trace of %s: %w", runID, err)
	}
	if len(rows) < 2 {
		return []pid.Record{}, nil
	}

	records := make([]pid.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("trace of %s, row %d: %w", runID, i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (pid.Record, error) {
	step, err := strconv.Atoi(row[0])
	if err != nil {
		return pid.Record{}, err
	}
	vals := make([]float64, len(row)-1)
	for i, cell := range row[1:] {
		if vals[i], err = strconv.ParseFloat(cell, 64); err != nil {
			return pid.Record{}, err
		}
	}
	return pid.Record{
		Step:       step,
		Setpoint:   vals[0],
		Error:      vals[1],
		ErrorPrev1: vals[2],
		ErrorPrev2: vals[3],
		Delta:      vals[4],
		Integral:   vals[5],
		Gate:       vals[6],
		RawOutput:  vals[7],
		Output:     vals[8],
		Actual:     vals[9],
	}, nil
}
