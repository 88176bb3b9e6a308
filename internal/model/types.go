package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// CaseRecord is the exported snapshot of one generated test case.
type CaseRecord struct {
	Instance   string   `json:"instance,omitempty"`
	Day        int      `json:"day"`
	Month      int      `json:"month"`
	Year       int      `json:"year"`
	Format     string   `json:"format"`
	Date       string   `json:"date"`
	Valid      bool     `json:"valid"`
	Categories []string `json:"categories"`
}

// Validity renders the case validity the way the CSV export expects it.
func (c CaseRecord) Validity() string {
	if c.Valid {
		return "Valid"
	}
	return "Invalid"
}

type RunRecord struct {
	VersionedRecord
	ID                   string  `json:"id"`
	Instance             string  `json:"instance"`
	Label                string  `json:"label,omitempty"`
	PopulationSize       int     `json:"population_size"`
	GenerationBudget     int     `json:"generation_budget"`
	GenerationsExecuted  int     `json:"generations_executed"`
	MutationRate         float64 `json:"mutation_rate"`
	LocalSearch          bool    `json:"local_search"`
	LocalSearchIters     int     `json:"local_search_iterations"`
	ForceFullGenerations bool    `json:"force_full_generations"`
	Seed                 int64   `json:"seed"`
	State                string  `json:"state"`
	FinalCoverage        float64 `json:"final_coverage"`
	CreatedAtUTC         string  `json:"created_at_utc"`
}

type PopulationSnapshot struct {
	VersionedRecord
	RunID      string       `json:"run_id"`
	Generation int          `json:"generation"`
	Members    []CaseRecord `json:"members"`
}

type GenerationDiagnostics struct {
	Generation  int     `json:"generation"`
	Coverage    float64 `json:"coverage"`
	Redundancy  int     `json:"redundancy"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
	Distinct    int     `json:"distinct"`
	ValidCount  int     `json:"valid_count"`
}
