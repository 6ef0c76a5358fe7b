package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"
)

// RepairResult reports a finished MSCK REPAIR run.
type RepairResult struct {
	Ok       bool   `json:"ok"`
	QueryID  string `json:"query_id,omitempty"`
	State    string `json:"state,omitempty"`
	Database string `json:"database,omitempty"`
	Table    string `json:"table,omitempty"`
}

// RepairPartitions runs MSCK REPAIR TABLE so Athena picks up partition
// directories the ETL wrote since the last repair, and waits for it to
// finish.
func RepairPartitions(ctx context.Context, c AthenaClient, opt AthenaRunOptions, table string) (*RepairResult, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("missing table name")
	}
	if strings.TrimSpace(opt.Database) == "" || strings.TrimSpace(opt.OutputLocation) == "" {
		return nil, fmt.Errorf("missing athena database or output location")
	}
	if opt.Workgroup == "" {
		opt.Workgroup = "primary"
	}
	if opt.MaxWait == 0 {
		opt.MaxWait = 60 * time.Second
	}
	if opt.PollInterval == 0 {
		opt.PollInterval = 2 * time.Second
	}

	startOut, err := c.StartQueryExecution(ctx, &athena.StartQueryExecutionInput{
		QueryString: sdkaws.String(fmt.Sprintf("MSCK REPAIR TABLE %s;", table)),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: sdkaws.String(opt.Database),
		},
		WorkGroup: sdkaws.String(opt.Workgroup),
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: sdkaws.String(opt.OutputLocation),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("StartQueryExecution: %w", err)
	}
	qid := sdkaws.ToString(startOut.QueryExecutionId)

	deadline := time.Now().Add(opt.MaxWait)
	for time.Now().Before(deadline) {
		st, err := c.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
			QueryExecutionId: sdkaws.String(qid),
		})
		if err != nil {
			return &RepairResult{QueryID: qid}, fmt.Errorf("GetQueryExecution: %w", err)
		}
		state := string(st.QueryExecution.Status.State)

		switch state {
		case "SUCCEEDED":
			return &RepairResult{
				Ok:       true,
				QueryID:  qid,
				State:    state,
				Database: opt.Database,
				Table:    table,
			}, nil
		case "FAILED", "CANCELLED":
			reason := sdkaws.ToString(st.QueryExecution.Status.StateChangeReason)
			return &RepairResult{QueryID: qid, State: state}, fmt.Errorf("repair %s: %s", state, reason)
		}
		time.Sleep(opt.PollInterval)
	}

	return &RepairResult{QueryID: qid, State: "TIMEOUT"}, fmt.Errorf("repair timed out waiting for qid=%s", qid)
}
