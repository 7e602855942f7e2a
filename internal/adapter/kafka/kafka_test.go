package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/observability"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/report"
)

func TestSerializeToMessage(t *testing.T) {
	commissioned := time.Date(2012, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := domain.Record{
		ID:                 "dk-0a1b2c3d4e5f6071",
		Country:            domain.CountryDK,
		DataSource:         domain.SourceEnergistyrelsen,
		CommissioningDate:  &commissioned,
		EnergySource:       domain.EnergyWind,
		ElectricalCapacity: domain.Ptr(2.3),
		Comment:            []string{domain.RuleTooEarly},
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("dk-0a1b2c3d4e5f6071"), msg.Key)
	assert.Contains(t, string(msg.Value), `"energy_source":"Wind"`)
	assert.Contains(t, string(msg.Value), `"commissioning_date":"2012-05-01T00:00:00Z"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "country", msg.Headers[0].Key)
	assert.Equal(t, []byte("DK"), msg.Headers[0].Value)
	assert.Equal(t, "data_source", msg.Headers[1].Key)
	assert.Equal(t, []byte(domain.SourceEnergistyrelsen), msg.Headers[1].Value)
	assert.Equal(t, "validation", msg.Headers[2].Key)
	assert.Equal(t, []byte("R_4, "), msg.Headers[2].Value)

	var back domain.Record
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, []string{domain.RuleTooEarly}, back.Comment)
}

func TestSerializeToMessage_OmitsMissingValues(t *testing.T) {
	msg, err := serializeToMessage(domain.Record{ID: "x", EnergySource: domain.EnergySolar})
	require.NoError(t, err)

	assert.NotContains(t, string(msg.Value), "electrical_capacity")
	assert.NotContains(t, string(msg.Value), "lat")
	assert.Equal(t, []byte(""), msg.Headers[2].Value)
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"b1:9092", "b2:9092"}, KafkaSinkTopic: "plants"}

	w := NewWriter(cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, "plants", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
	require.NoError(t, w.Close())
}

func TestWriter_LoadEmpty(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaSinkTopic: "plants"}
	w := NewWriter(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.NoError(t, w.Load(context.Background(), report.Output{}))
}
