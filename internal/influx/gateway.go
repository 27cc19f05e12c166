package influx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/logger"
	"codeberg.org/mutker/diskgauge/internal/usage"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Gateway issues the single read query behind the dashboard.
//
// It holds the connection parameters for the process lifetime and never
// retries or times out on its own: callers bound a poll through ctx.
type Gateway struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	flux     string
	cfg      Config
}

// New builds the client and the fixed query. It does not contact the server.
func New(cfg Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := serverURL(cfg.Connection.Host)
	if err != nil {
		return nil, err
	}

	// InfluxDB 1.8+ accepts "username:password" as the token on its v2
	// compatibility endpoints.
	token := cfg.Connection.Username + ":" + cfg.Connection.Password
	client := influxdb2.NewClientWithOptions(base, token, influxdb2.DefaultOptions())

	g := &Gateway{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Query.Org),
		flux:     buildQuery(cfg),
		cfg:      cfg,
	}

	logger.Debug().
		Str("url", base).
		Str("bucket", cfg.Query.bucket(cfg.Connection.Database)).
		Msg("InfluxDB gateway initialized")

	return g, nil
}

// Query returns the Flux text sent on every poll.
func (g *Gateway) Query() string {
	return g.flux
}

// Fetch runs the query and returns one reading per group, in the order the
// response enumerates its tables. Only the first row of each table is used.
func (g *Gateway) Fetch(ctx context.Context) (usage.Snapshot, error) {
	errFactory := errors.New()

	result, err := g.queryAPI.Query(ctx, g.flux)
	if err != nil {
		return nil, errFactory.Wrap(ErrTransport, err)
	}
	defer result.Close()

	var (
		snapshot usage.Snapshot
		seen     = make(map[int]bool)
	)

	for result.Next() {
		record := result.Record()
		if seen[record.Table()] {
			continue
		}
		seen[record.Table()] = true

		label, ok := record.ValueByKey(g.cfg.Query.GroupTag).(string)
		if !ok {
			return nil, errFactory.WithData(ErrMalformed, struct {
				Table  int
				Column string
			}{
				Table:  record.Table(),
				Column: g.cfg.Query.GroupTag,
			})
		}

		value, ok := toFloat(record.Value())
		if !ok {
			return nil, errFactory.WithData(ErrMalformed, struct {
				Label string
				Value string
			}{
				Label: label,
				Value: fmt.Sprintf("%T", record.Value()),
			})
		}

		snapshot = append(snapshot, usage.Reading{Label: label, Value: value})
	}

	if err := result.Err(); err != nil {
		return nil, errFactory.Wrap(streamErrorCode(err), err)
	}

	if len(snapshot) == 0 {
		return nil, errFactory.New(ErrEmpty)
	}

	return snapshot, nil
}

// streamErrorCode separates a connection dropped mid-response from a body
// that arrived intact but could not be parsed.
func streamErrorCode(err error) errors.ErrorCode {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return ErrMalformed
	}

	var netErr net.Error
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return ErrTransport
	}

	return ErrMalformed
}

// Ping reports whether the server answers its health endpoint.
func (g *Gateway) Ping(ctx context.Context) error {
	errFactory := errors.New()

	healthy, err := g.client.Ping(ctx)
	if err != nil {
		return errFactory.Wrap(ErrTransport, err)
	}
	if !healthy {
		return errFactory.New(ErrUnhealthy)
	}
	return nil
}

// Close releases idle connections held by the client.
func (g *Gateway) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

func buildQuery(cfg Config) string {
	q := cfg.Query

	filters := []string{
		fmt.Sprintf(`r._measurement == "%s"`, fluxEscape(q.Measurement)),
		fmt.Sprintf(`r._field == "%s"`, fluxEscape(q.Field)),
	}
	if q.App != "" {
		filters = append(filters, fmt.Sprintf(`r.app == "%s"`, fluxEscape(q.App)))
	}
	if q.HardwareType != "" {
		filters = append(filters, fmt.Sprintf(`r.hardware_type == "%s"`, fluxEscape(q.HardwareType)))
	}
	if q.Sensor != "" {
		filters = append(filters, fmt.Sprintf(`r.sensor == "%s"`, fluxEscape(q.Sensor)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: \"%s\")\n", fluxEscape(q.bucket(cfg.Connection.Database)))
	fmt.Fprintf(&b, "  |> range(start: -%s)\n", fluxDuration(q.Lookback))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => %s)\n", strings.Join(filters, " and "))
	fmt.Fprintf(&b, "  |> group(columns: [\"%s\"])\n", fluxEscape(q.GroupTag))
	b.WriteString("  |> last()")

	return b.String()
}

// fluxDuration renders d as a Flux duration literal such as 1h30m.
func fluxDuration(d time.Duration) string {
	if d%time.Second != 0 {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	var b strings.Builder
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	if s > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", s)
	}
	return b.String()
}

var fluxReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "${", `\${`)

func fluxEscape(s string) string {
	return fluxReplacer.Replace(s)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
