package batch

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/vietddude/seqfetch/internal/core/domain"
)

// AuditLogName is the audit log file created in the output directory.
const AuditLogName = "fasta_download_log.csv"

var auditHeader = []string{"pdb_id", "source", "status", "note"}

// AuditLog is an append-only CSV of one row per processed item. Every row is
// flushed before Append returns, so an interrupted run never leaves a
// half-written record.
type AuditLog struct {
	f    *os.File
	w    *csv.Writer
	rows int
}

// CreateAuditLog truncates (or creates) path and writes the header row.
func CreateAuditLog(path string) (*AuditLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}
	l := &AuditLog{f: f, w: csv.NewWriter(f)}
	if err := l.write(auditHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return l, nil
}

// Append writes one record.
func (l *AuditLog) Append(rec domain.AuditRecord) error {
	if err := l.write([]string{string(rec.ID), rec.Source, string(rec.Status), rec.Note}); err != nil {
		return err
	}
	l.rows++
	return nil
}

// Rows returns the number of records written, excluding the header.
func (l *AuditLog) Rows() int { return l.rows }

// Path returns the file path of the log.
func (l *AuditLog) Path() string { return l.f.Name() }

func (l *AuditLog) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush audit log: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (l *AuditLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		_ = l.f.Close()
		return fmt.Errorf("flush audit log: %w", err)
	}
	return l.f.Close()
}
