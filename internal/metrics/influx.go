package metrics

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
)

const tickMeasurement = "tick"

// PointWriter is the part of the influx write API a sink needs.
type PointWriter interface {
	WritePoint(p *influxdb2_write.Point)
}

// InfluxSink writes one point per tick. Writes are buffered by the
// client, so OnTick never blocks the session.
type InfluxSink struct {
	w    PointWriter
	tags map[string]string
	now  func() time.Time
}

func NewInfluxSink(w PointWriter, tags map[string]string) *InfluxSink {
	return &InfluxSink{w: w, tags: tags, now: time.Now}
}

func (s *InfluxSink) OnTick(sm Sample) {
	p := influxdb2.NewPoint(tickMeasurement, s.tags, map[string]any{
		"elapsed":   sm.Elapsed.Seconds(),
		"x":         sm.Pose.X,
		"y":         sm.Pose.Y,
		"dir":       sm.Pose.Dir,
		"vel_l":     sm.VelL,
		"vel_r":     sm.VelR,
		"left":      sm.Sensors[0],
		"center":    sm.Sensors[1],
		"right":     sm.Sensors[2],
		"committed": sm.Committed,
	}, s.now())
	s.w.WritePoint(p)
}

// Influx owns a client and its non-blocking write API.
type Influx struct {
	client influxdb2.Client
	write  influxdb2_api.WriteAPI
	log    zerolog.Logger
}

// ConnectInflux checks the server is up and returns a writer for bucket.
// Write errors are logged, never returned.
func ConnectInflux(ctx context.Context, url, token, org, bucket string, log zerolog.Logger) (*Influx, error) {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)
	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		if err == nil {
			err = fmt.Errorf("not running")
		}
		return nil, fmt.Errorf("influx %s: %w", url, err)
	}

	ix := &Influx{
		client: client,
		write:  client.WriteAPI(org, bucket),
		log:    log.With().Str("component", "influx").Str("bucket", bucket).Logger(),
	}
	go ix.drainErrors()
	ix.log.Info().Str("url", url).Msg("influx connected")
	return ix, nil
}

func (ix *Influx) drainErrors() {
	for err := range ix.write.Errors() {
		ix.log.Warn().Err(err).Msg("influx write failed")
	}
}

// Sink returns a tick observer writing with tags.
func (ix *Influx) Sink(tags map[string]string) *InfluxSink {
	return NewInfluxSink(ix.write, tags)
}

// Close flushes pending points and closes the client.
func (ix *Influx) Close() {
	ix.write.Flush()
	ix.client.Close()
}
