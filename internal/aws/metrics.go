package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// PutImportMetrics emits the per-submission counters the worker reports.
func PutImportMetrics(ctx context.Context, cw CloudWatchAPI, namespace, shop string, ordersCreated, rowsFailed int) error {
	if namespace == "" {
		return nil
	}

	now := time.Now().UTC()
	dims := []cwtypes.Dimension{
		{Name: sdkaws.String("Shop"), Value: sdkaws.String(shop)},
	}

	_, err := cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String("OrdersCreated"),
				Dimensions: dims,
				Timestamp:  sdkaws.Time(now),
				Value:      sdkaws.Float64(float64(ordersCreated)),
				Unit:       cwtypes.StandardUnitCount,
			},
			{
				MetricName: sdkaws.String("RowsFailed"),
				Dimensions: dims,
				Timestamp:  sdkaws.Time(now),
				Value:      sdkaws.Float64(float64(rowsFailed)),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
