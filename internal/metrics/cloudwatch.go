package metrics

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchSink mirrors the original system's `_emit_metric` helper: a
// best-effort `PutMetricData` call that never blocks or fails the caller.
type CloudWatchSink struct {
	Client    *cloudwatch.Client
	Namespace string
	Logger    *zap.Logger
}

func (c *CloudWatchSink) IncCounter(ctx context.Context, name string, tags map[string]string) {
	c.put(ctx, name, 1, types.StandardUnitCount, tags)
}

func (c *CloudWatchSink) ObserveDuration(ctx context.Context, name string, seconds float64, tags map[string]string) {
	c.put(ctx, name, seconds*1000, types.StandardUnitMilliseconds, tags)
}

func (c *CloudWatchSink) put(ctx context.Context, name string, value float64, unit types.StandardUnit, tags map[string]string) {
	if c.Client == nil {
		return
	}

	var dims []types.Dimension
	for k, v := range tags {
		dims = append(dims, types.Dimension{Name: aws.String(k), Value: aws.String(v)})
	}

	go func() {
		_, err := c.Client.PutMetricData(context.WithoutCancel(ctx), &cloudwatch.PutMetricDataInput{
			Namespace: aws.String(c.Namespace),
			MetricData: []types.MetricDatum{
				{
					MetricName: aws.String(name),
					Value:      aws.Float64(value),
					Unit:       unit,
					Dimensions: dims,
				},
			},
		})
		if err != nil && c.Logger != nil {
			c.Logger.Warn("cloudwatch put_metric_data failed", zap.String("metric", name), zap.Error(err))
		}
	}()
}
