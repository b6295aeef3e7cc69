// Package verifier checks that an exported catalog reached the database intact.
package verifier

import (
	"context"
	"fmt"

	"github.com/dbsmedya/rttidump/internal/lock"
	"github.com/dbsmedya/rttidump/internal/logger"
	"github.com/dbsmedya/rttidump/internal/sqlutil"
)

// VerificationMethod defines how to verify data integrity.
type VerificationMethod string

const (
	// MethodCount compares row counts per table.
	MethodCount VerificationMethod = "count"
	// MethodSkip skips verification entirely.
	MethodSkip VerificationMethod = "skip"
)

// Expectation is the number of rows a table should hold for the catalog.
type Expectation struct {
	Table string
	Rows  int64
}

// VerifyResult holds verification results for a single table.
type VerifyResult struct {
	Table        string
	Expected     int64
	Actual       int64
	Match        bool
	ErrorMessage string
}

// VerifyStats contains overall verification statistics.
type VerifyStats struct {
	TablesVerified int
	TablesPassed   int
	TablesFailed   int
	TotalRows      int64
	Method         VerificationMethod
	Results        []VerifyResult
}

// Verifier compares the rows stored for one catalog with what was written.
type Verifier struct {
	db          lock.Querier
	catalogName string
	method      VerificationMethod
	logger      *logger.Logger
}

// NewVerifier creates a verifier for the rows of catalogName.
func NewVerifier(db lock.Querier, catalogName string, method VerificationMethod, log *logger.Logger) (*Verifier, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if catalogName == "" {
		return nil, fmt.Errorf("catalog name is empty")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if method == "" {
		method = MethodCount
	}

	return &Verifier{
		db:          db,
		catalogName: catalogName,
		method:      method,
		logger:      log,
	}, nil
}

// Verify checks every expectation in order and stops at the first mismatch.
func (v *Verifier) Verify(ctx context.Context, expected []Expectation) (*VerifyStats, error) {
	if v.method == MethodSkip {
		v.logger.Info("Verification SKIPPED (method=skip)")
		return &VerifyStats{Method: MethodSkip}, nil
	}
	if v.method != MethodCount {
		return nil, fmt.Errorf("unsupported verification method: %s", v.method)
	}

	stats := &VerifyStats{Method: v.method}
	v.logger.Infof("Starting verification (method=%s) for %d tables", v.method, len(expected))

	for _, exp := range expected {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("verification interrupted: %w", err)
		}

		result, err := v.verifyByCount(ctx, exp)
		if err != nil {
			return stats, fmt.Errorf("verification failed for table %s: %w", exp.Table, err)
		}

		stats.TablesVerified++
		stats.TotalRows += result.Actual
		stats.Results = append(stats.Results, *result)

		if !result.Match {
			stats.TablesFailed++
			v.logger.WithTable(exp.Table).Errorf("Verification FAILED: %s", result.ErrorMessage)
			return stats, fmt.Errorf("verification mismatch in table %s: %s", exp.Table, result.ErrorMessage)
		}
		stats.TablesPassed++
		v.logger.WithTable(exp.Table).Debugf("Verification PASSED (%d rows)", result.Actual)
	}

	v.logger.Infof("Verification complete: %d tables verified, %d passed, %d failed, %d total rows",
		stats.TablesVerified, stats.TablesPassed, stats.TablesFailed, stats.TotalRows)

	return stats, nil
}

// verifyByCount compares the stored row count with the expectation.
func (v *Verifier) verifyByCount(ctx context.Context, exp Expectation) (*VerifyResult, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?",
		sqlutil.QuoteIdentifier(exp.Table), sqlutil.QuoteIdentifier("catalog"))

	var actual int64
	if err := v.db.QueryRowContext(ctx, query, v.catalogName).Scan(&actual); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	result := &VerifyResult{
		Table:    exp.Table,
		Expected: exp.Rows,
		Actual:   actual,
		Match:    actual == exp.Rows,
	}
	if !result.Match {
		result.ErrorMessage = fmt.Sprintf("count mismatch: expected=%d, stored=%d", exp.Rows, actual)
	}
	return result, nil
}

// Method returns the configured verification method.
func (v *Verifier) Method() VerificationMethod {
	return v.method
}
