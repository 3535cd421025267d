// Package influx reports tile generation and reindex measurements to InfluxDB.
package influx

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mapgrid/usermarks/internal/tiling"
	"github.com/mapgrid/usermarks/pkg/core"
)

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPI
	IsValid bool
	Bucket  string
	Logger  zerolog.Logger
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		IsValid: false,
		Logger:  log,
	}
}

// Connect establishes a connection to InfluxDB using viper config.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(context.Background())
	if err != nil || !running {
		m.IsValid = false
		return fmt.Errorf("failed to reach InfluxDB: %v", err)
	}

	m.Bucket = viper.GetString("influx.bucket")
	m.Writer = m.Client.WriteAPI(viper.GetString("influx.org"), m.Bucket)
	m.IsValid = true
	m.Logger.Info().Str("bucket", m.Bucket).Msg("Connected to InfluxDB")
	return nil
}

// WriteGeneration records one tile generation pass.
func (m *Manager) WriteGeneration(key tiling.TileKey, groupsEmitted int, duration time.Duration) {
	if !m.IsValid {
		return
	}
	p := influxdb2.NewPointWithMeasurement("tile_generation").
		AddTag("tile", key.String()).
		AddField("groups_emitted", groupsEmitted).
		AddField("duration_us", duration.Microseconds()).
		SetTime(time.Now())
	m.Writer.WritePoint(p)
}

// WriteReindex records one group reindex pass.
func (m *Manager) WriteReindex(kind string, group core.GroupID, annotations int, duration time.Duration) {
	if !m.IsValid {
		return
	}
	p := influxdb2.NewPointWithMeasurement("group_reindex").
		AddTag("kind", kind).
		AddField("group", int64(group)).
		AddField("annotations", annotations).
		AddField("duration_us", duration.Microseconds()).
		SetTime(time.Now())
	m.Writer.WritePoint(p)
}

// Close flushes pending points and shuts the client down.
func (m *Manager) Close() {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	m.IsValid = false
}
