package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/xylab/internal/config"
	"github.com/san-kum/xylab/internal/sweep"
)

// csvHeader matches the reference output format, plus a trailing flag
// column for low-confidence points.
var csvHeader = []string{
	"temp", "dim_x", "dim_y",
	"energy", "energy_var", "c",
	"vortex_density", "rhat", "n_eff", "flagged",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Config    *config.Config `json:"config"`
	Points    int            `json:"points"`
	Flagged   int            `json:"flagged"`
}

// Save writes one sweep's metadata and results under a fresh run
// directory and returns the run id.
func (s *Store) Save(cfg *config.Config, results []sweep.Result) (string, error) {
	runID := fmt.Sprintf("sweep_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	flagged := 0
	for _, r := range results {
		if r.LowConfidence {
			flagged++
		}
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Config:    cfg,
		Points:    len(results),
		Flagged:   flagged,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "results.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeResults(csvFile, results); err != nil {
		return "", err
	}
	return runID, nil
}

func writeResults(out io.Writer, results []sweep.Result) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		flag := "0"
		if r.LowConfidence {
			flag = "1"
		}
		row := []string{
			fmtFloat(r.Temp),
			strconv.Itoa(r.Size),
			strconv.Itoa(r.Size),
			fmtFloat(r.MeanEnergy),
			fmtFloat(r.EnergyVar),
			fmtFloat(r.SpecificHeat),
			fmtFloat(r.VortexDensity),
			fmtFloat(r.Rhat),
			fmtFloat(r.ESS),
			flag,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

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
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadResults reads a run's results.csv back into records.
func (s *Store) LoadResults(runID string) ([]sweep.Result, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "results.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return []sweep.Result{}, nil
	}

	results := make([]sweep.Result, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(csvHeader) {
			continue
		}
		var res sweep.Result
		res.Temp = parseFloat(rec[0])
		res.Size = int(parseFloat(rec[1]))
		res.MeanEnergy = parseFloat(rec[3])
		res.EnergyVar = parseFloat(rec[4])
		res.SpecificHeat = parseFloat(rec[5])
		res.VortexDensity = parseFloat(rec[6])
		res.Rhat = parseFloat(rec[7])
		res.ESS = parseFloat(rec[8])
		res.LowConfidence = rec[9] == "1"
		results = append(results, res)
	}
	return results, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// ExportCSV streams a run's results to out in the storage format.
func (s *Store) ExportCSV(runID string, out io.Writer) error {
	results, err := s.LoadResults(runID)
	if err != nil {
		return err
	}
	return writeResults(out, results)
}

// ExportJSON writes a run's metadata and results as one JSON document.
func (s *Store) ExportJSON(runID string, out io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	results, err := s.LoadResults(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		RunMetadata
		Results []sweep.Result `json:"results"`
	}{*meta, results})
}
