// Package etl builds the import-metrics analytics lake: a daily Parquet
// aggregation job, an Athena query runner for the history endpoint, and a
// partition repair entry point.
package etl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type AthenaClient interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type AthenaRunOptions struct {
	Database       string
	Workgroup      string
	OutputLocation string // s3://.../athena-results/
	MaxWait        time.Duration
	PollInterval   time.Duration
	MaxResultRows  int
}

type AthenaResult struct {
	QueryExecutionID string
	Columns          []string
	Rows             []map[string]any
	ScannedBytes     int64
	ExecutionMs      int64
}

type AthenaError struct {
	State            string
	Reason           string
	QueryExecutionID string
}

func (e *AthenaError) Error() string {
	if e.QueryExecutionID != "" {
		return fmt.Sprintf("athena %s: %s (qid=%s)", e.State, e.Reason, e.QueryExecutionID)
	}
	return fmt.Sprintf("athena %s: %s", e.State, e.Reason)
}

// RunAthenaQuery starts a query, polls it to a terminal state and pulls the
// result set. The first result row is the header and is skipped.
func RunAthenaQuery(ctx context.Context, c AthenaClient, sql string, opt AthenaRunOptions) (*AthenaResult, error) {
	if strings.TrimSpace(opt.Database) == "" {
		return nil, fmt.Errorf("missing athena database")
	}
	if strings.TrimSpace(opt.Workgroup) == "" {
		return nil, fmt.Errorf("missing athena workgroup")
	}
	if strings.TrimSpace(opt.OutputLocation) == "" {
		return nil, fmt.Errorf("missing athena output location")
	}
	if opt.MaxWait == 0 {
		opt.MaxWait = 25 * time.Second
	}
	if opt.PollInterval == 0 {
		opt.PollInterval = 700 * time.Millisecond
	}
	if opt.MaxResultRows == 0 {
		opt.MaxResultRows = 400
	}

	startOut, err := c.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: sdkaws.String(sql),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: sdkaws.String(opt.Database),
		},
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: sdkaws.String(opt.OutputLocation),
		},
		WorkGroup: sdkaws.String(opt.Workgroup),
	})
	if err != nil {
		return nil, fmt.Errorf("athena StartQueryExecution: %w", err)
	}
	qid := sdkaws.ToString(startOut.QueryExecutionId)

	deadline := time.Now().Add(opt.MaxWait)
	var exec *athenatypes.QueryExecution
	for {
		if time.Now().After(deadline) {
			return nil, &AthenaError{State: "TIMEOUT", Reason: "query timed out", QueryExecutionID: qid}
		}
		getOut, err := c.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: sdkaws.String(qid),
		})
		if err != nil {
			return nil, fmt.Errorf("athena GetQueryExecution: %w", err)
		}
		exec = getOut.QueryExecution
		state := exec.Status.State

		if state == athenatypes.QueryExecutionStateSucceeded {
			break
		}
		if state == athenatypes.QueryExecutionStateFailed || state == athenatypes.QueryExecutionStateCancelled {
			reason := sdkaws.ToString(exec.Status.StateChangeReason)
			return nil, &AthenaError{State: string(state), Reason: reason, QueryExecutionID: qid}
		}
		time.Sleep(opt.PollInterval)
	}

	var (
		nextToken *string
		allRows   []athenatypes.Row
		colInfo   []athenatypes.ColumnInfo
	)
	for {
		resOut, err := c.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: sdkaws.String(qid),
			NextToken:        nextToken,
			MaxResults:       sdkaws.Int32(1000),
		})
		if err != nil {
			return nil, fmt.Errorf("athena GetQueryResults: %w", err)
		}
		if colInfo == nil {
			colInfo = resOut.ResultSet.ResultSetMetadata.ColumnInfo
		}
		allRows = append(allRows, resOut.ResultSet.Rows...)
		if resOut.NextToken == nil || sdkaws.ToString(resOut.NextToken) == "" {
			break
		}
		nextToken = resOut.NextToken

		if len(allRows) > opt.MaxResultRows+1 {
			break
		}
	}

	cols := make([]string, 0, len(colInfo))
	for _, ci := range colInfo {
		cols = append(cols, sdkaws.ToString(ci.Name))
	}

	outRows := make([]map[string]any, 0, len(allRows))
	for i, r := range allRows {
		if i == 0 {
			continue // header row
		}
		if len(outRows) >= opt.MaxResultRows {
			break
		}

		m := map[string]any{}
		for ci, d := range r.Data {
			if ci >= len(cols) {
				continue
			}
			m[cols[ci]] = coerceScalar(sdkaws.ToString(d.VarCharValue))
		}
		outRows = append(outRows, m)
	}

	var scanned, execMs int64
	if exec != nil && exec.Statistics != nil {
		scanned = sdkaws.ToInt64(exec.Statistics.DataScannedInBytes)
		execMs = sdkaws.ToInt64(exec.Statistics.EngineExecutionTimeInMillis)
	}

	return &AthenaResult{
		QueryExecutionID: qid,
		Columns:          cols,
		Rows:             outRows,
		ScannedBytes:     scanned,
		ExecutionMs:      execMs,
	}, nil
}

// ShapeResult flattens an Athena result to the JSON shape the history
// endpoint serves. A single cell collapses to a scalar.
func ShapeResult(columns []string, rows []map[string]any) map[string]any {
	out := map[string]any{
		"columns": columns,
		"rows":    rows,
	}
	if len(rows) == 1 && len(columns) == 1 {
		out["value"] = rows[0][columns[0]]
		out["kind"] = "scalar"
		return out
	}
	out["kind"] = "table"
	return out
}

func coerceScalar(v string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
