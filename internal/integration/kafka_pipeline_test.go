//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/kafka"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/observability"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/pipeline"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

const testSinkTopic = "test-renewable-power-plants"

// publishedMessage holds a deserialized message read from the sink topic.
type publishedMessage struct {
	Record  domain.Record
	Key     string
	Headers map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// readPublished reads n messages from the sink topic.
func readPublished(ctx context.Context, t *testing.T, broker string, n int) []publishedMessage {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSinkTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer consumer.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedMessage, 0, n)
	for range n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from sink topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var rec domain.Record
		require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal sink message")
		out = append(out, publishedMessage{Record: rec, Key: string(msg.Key), Headers: headers})
	}
	return out
}

type staticExtractor map[domain.Country][]domain.Record

func (s staticExtractor) Extract(_ context.Context, country domain.Country, _ *domain.Translator) ([]domain.Record, error) {
	return s[country], nil
}

func commissioned(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// TestKafkaWriter verifies that the writer publishes every record keyed by
// its ID with the country, data source and validation headers.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, metrics, discardLogger())
	defer writer.Close()

	out := report.Output{Records: []domain.Record{
		{ID: "dk-1", Country: domain.CountryDK, DataSource: domain.SourceEnergistyrelsen, EnergySource: domain.EnergyWind},
		{ID: "pl-1", Country: domain.CountryPL, DataSource: domain.SourceURE, EnergySource: domain.EnergySolar, Comment: []string{domain.RuleNoCommissioning}},
	}}
	require.NoError(t, writer.Load(ctx, out))

	got := readPublished(ctx, t, broker, 2)
	assert.Equal(t, "dk-1", got[0].Key)
	assert.Equal(t, "DK", got[0].Headers["country"])
	assert.Equal(t, domain.SourceEnergistyrelsen, got[0].Headers["data_source"])
	assert.Equal(t, "pl-1", got[1].Key)
	assert.Equal(t, "R_2, ", got[1].Headers["validation"])
	assert.Equal(t, []string{domain.RuleNoCommissioning}, got[1].Record.Comment)
}

// TestPipelineEndToEnd runs the full pipeline with the Kafka writer as its
// only loader and checks the validated master table arrives on the topic in
// merge order.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, metrics, discardLogger())
	defer writer.Close()

	def := &config.Pipeline{
		Sources: []config.SourceSpec{
			{FileSpec: config.FileSpec{File: "bnetza.xlsx"}, Name: domain.SourceBNetzA, Role: config.RoleBNetzA},
			{FileSpec: config.FileSpec{File: "solar.xlsx"}, Name: domain.SourceEnerginet, Role: config.RoleDKSolar},
		},
		Rules: domain.DefaultRuleConfig(),
		Report: report.Options{
			Country:    domain.CountryDE,
			Categories: report.DefaultCategories(),
			Yearly:     report.YearlyGrid(2014, 2015),
		},
	}
	extractor := staticExtractor{
		domain.CountryDK: {{ID: "dk-1", Country: domain.CountryDK, DataSource: domain.SourceEnerginet,
			EnergySource: domain.EnergySolar, ElectricalCapacity: domain.Ptr(0.006), CommissioningDate: commissioned(2012, 11, 15)}},
		domain.CountryDE: {{ID: "de-1", Country: domain.CountryDE, DataSource: domain.SourceBNetzA, NotificationReason: "Inbetriebnahme",
			EnergySource: domain.EnergySolar, ElectricalCapacity: domain.Ptr(0.5)}},
	}
	lookups := pipeline.Lookups{Georeferencer: domain.NewGeoreferencer(nil, nil)}

	p := pipeline.New(def, lookups, extractor, []pipeline.Loader{writer}, discardLogger(), metrics)
	out, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Suspect)

	got := readPublished(ctx, t, broker, 2)
	assert.Equal(t, "de-1", got[0].Key)
	assert.Equal(t, "R_2, ", got[0].Headers["validation"], "no commissioning date")
	assert.Equal(t, "dk-1", got[1].Key)
	assert.Empty(t, got[1].Headers["validation"])
}
