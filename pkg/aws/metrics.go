package aws

import (
	"context"
	"fmt"
	"slices"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const defaultNamespace = "Legerity"

// MetricsRecorder is what services and middleware record through. A nil or
// disabled recorder is skipped by callers.
type MetricsRecorder interface {
	IsEnabled() bool
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// MetricsClient publishes single data points to CloudWatch.
type MetricsClient struct {
	client    *cloudwatch.Client
	namespace string
	enabled   bool
	now       func() time.Time
}

func NewMetricsClient(cfg sdkaws.Config, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &MetricsClient{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		enabled:   enabled,
		now:       time.Now,
	}
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

func (m *MetricsClient) RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error {
	return m.put(ctx, newDatum(metricName, 1, types.StandardUnitCount, dimensions, m.now()))
}

// RecordLatency reports duration in milliseconds.
func (m *MetricsClient) RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error {
	ms := float64(duration) / float64(time.Millisecond)
	return m.put(ctx, newDatum(metricName, ms, types.StandardUnitMilliseconds, dimensions, m.now()))
}

func (m *MetricsClient) put(ctx context.Context, datum types.MetricDatum) error {
	if !m.IsEnabled() {
		return nil
	}
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", sdkaws.ToString(datum.MetricName), err)
	}
	return nil
}

// newDatum sorts dimensions by name so equal maps yield equal requests.
func newDatum(name string, value float64, unit types.StandardUnit, dimensions map[string]string, at time.Time) types.MetricDatum {
	dims := make([]types.Dimension, 0, len(dimensions))
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		dims = append(dims, types.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(dimensions[k])})
	}
	return types.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(value),
		Unit:       unit,
		Timestamp:  sdkaws.Time(at),
		Dimensions: dims,
	}
}

const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"
	MetricHTTP4xx      = "HTTP4xxErrors"
	MetricHTTP5xx      = "HTTP5xxErrors"

	MetricOrdersCreated    = "OrdersCreated"
	MetricCheckoutFailed   = "CheckoutFailed"
	MetricCheckoutRetried  = "CheckoutRetried"
	MetricCheckoutLatency  = "CheckoutLatency"
	MetricOutOfStock       = "OutOfStockRejections"
	MetricCartItemsAdded   = "CartItemsAdded"
	MetricCatalogCacheHits = "CatalogCacheHits"
	MetricCatalogCacheMiss = "CatalogCacheMisses"
)
