package report

type Report struct {
	Run      *RunReport      `json:"run,omitempty"`
	Ingestor *IngestorReport `json:"ingestor,omitempty"`
}
