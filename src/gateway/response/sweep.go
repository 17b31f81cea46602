package response

import (
	"time"

	"github.com/wochenmarkt/ingestor/src/ingest"
)

type Sweep struct {
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Timestamp string `json:"timestamp"`
}

func SummaryToResponse(summary *ingest.Summary) *Sweep {
	return &Sweep{
		Processed: summary.Processed,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Timestamp: summary.Timestamp.UTC().Format(time.RFC3339),
	}
}
