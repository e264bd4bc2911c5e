package app

import (
	"taggivm/internal/catalog"
	"taggivm/internal/model"
)

// Ingest run statuses.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunPartial = "partial"
	RunError   = "error"
)

// ScanOperation tracks one scan invocation. Dry runs stay in memory;
// real runs are recorded in the database as an ingest run.
type ScanOperation struct {
	RunID  string
	DryRun bool
	Run    *model.IngestRun
}

// NewScanOperation creates a new in-memory scan operation.
func NewScanOperation(runID string, dryRun bool) *ScanOperation {
	return &ScanOperation{RunID: runID, DryRun: dryRun}
}

// Persisted returns true if this operation has been saved to the database.
func (op *ScanOperation) Persisted() bool {
	return op.Run != nil && op.Run.ID != 0
}

// Complete copies the counters of report onto the run and sets its final status.
func (op *ScanOperation) Complete(report *catalog.IngestReport, err error) {
	if op.Run == nil {
		return
	}
	if report != nil {
		op.Run.AlbumsIngested = len(report.Succeeded())
		op.Run.AlbumsFailed = len(report.Failed())
		op.Run.FoldersSkipped = len(report.Skipped)
	}
	op.Run.Status = RunStatus(report, err)
}

// RunStatus derives the final status of a scan: "error" when the scan itself
// failed or nothing was ingested despite failures, "partial" when some albums
// failed, "success" otherwise.
func RunStatus(report *catalog.IngestReport, err error) string {
	if err != nil || report == nil {
		return RunError
	}
	failed := len(report.Failed())
	switch {
	case failed == 0:
		return RunSuccess
	case len(report.Succeeded()) == 0:
		return RunError
	default:
		return RunPartial
	}
}
