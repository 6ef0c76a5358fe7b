package etl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
)

type GlueClient interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
}

type TableSchema struct {
	Database   string
	Table      string
	Location   string
	Columns    []Column
	Partitions []Column
}

type Column struct {
	Name string
	Type string
}

// LoadTableSchema pulls the import_metrics table definition from the Glue
// catalog. The history endpoint uses it to build its SELECT column list.
func LoadTableSchema(ctx context.Context, c GlueClient, database, table string) (*TableSchema, error) {
	if strings.TrimSpace(database) == "" || strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("missing glue database or table name")
	}

	out, err := c.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: sdkaws.String(database),
		Name:         sdkaws.String(table),
	})
	if err != nil {
		return nil, fmt.Errorf("glue GetTable %s.%s: %w", database, table, err)
	}

	ti := out.Table
	sd := ti.StorageDescriptor

	schema := &TableSchema{
		Database: database,
		Table:    sdkaws.ToString(ti.Name),
		Location: sdkaws.ToString(sd.Location),
	}

	for _, col := range sd.Columns {
		schema.Columns = append(schema.Columns, Column{
			Name: sdkaws.ToString(col.Name),
			Type: sdkaws.ToString(col.Type),
		})
	}
	for _, p := range ti.PartitionKeys {
		schema.Partitions = append(schema.Partitions, Column{
			Name: sdkaws.ToString(p.Name),
			Type: sdkaws.ToString(p.Type),
		})
	}

	// Stable ordering across runs
	sort.Slice(schema.Columns, func(i, j int) bool { return schema.Columns[i].Name < schema.Columns[j].Name })
	sort.Slice(schema.Partitions, func(i, j int) bool { return schema.Partitions[i].Name < schema.Partitions[j].Name })

	return schema, nil
}

// SelectList renders the schema's data columns as a comma-separated
// projection list.
func (s *TableSchema) SelectList() string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
