package grpc_control

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"energy-forecast/src/config"
	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"
	"energy-forecast/src/pipeline"
	"energy-forecast/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubForecasts struct{}

func (stubForecasts) Run(ctx context.Context, sel pipeline.Selection) (*models.MForecastSet, error) {
	if sel.Date == "bad" {
		return nil, helpers.ErrInvalidDate
	}
	return &models.MForecastSet{Date: sel.Date, Region: sel.Region, RunID: "run-1", Rows: []models.EnrichedRow{}}, nil
}

type stubExchanger struct{ n int }

func (e stubExchanger) Connections() int { return e.n }
func (e stubExchanger) Start() error     { return nil }
func (e stubExchanger) Stop() error      { return nil }

func startBufconn(t *testing.T) *grpc.ClientConn {
	t.Helper()

	log := logger.NewLogger(nil, "test")
	log.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.Regions = []string{"DE", "TenneT"}

	store := storage.NewFileStore(t.TempDir(), log)
	require.NoError(t, store.Initialize(context.Background()))
	require.NoError(t, store.Put(context.Background(), "abc", []byte("x")))

	svc := NewControlService(cfg, store, stubForecasts{}, stubExchanger{n: 2}, log)

	lis := bufconn.Listen(1024 * 1024)
	svc.Register()
	go func() { _ = svc.Serve(lis) }()
	t.Cleanup(svc.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGetStatus(t *testing.T) {
	conn := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := NewControlClient(conn).GetStatus(ctx)
	require.NoError(t, err)

	m := out.AsMap()
	assert.Equal(t, "file", m["cache_backend"])
	assert.Equal(t, 1.0, m["cache_entries"])
	assert.Equal(t, 2.0, m["connections"])
	assert.Equal(t, "strict", m["validation"])
	assert.Equal(t, []interface{}{"DE", "TenneT"}, m["regions"])
}

func TestGetForecast(t *testing.T) {
	conn := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := NewControlClient(conn).GetForecast(ctx, "2022-10-28", "")
	require.NoError(t, err)

	m := out.AsMap()
	assert.Equal(t, "2022-10-28", m["date"])
	assert.Equal(t, "DE", m["region"])
	assert.Equal(t, "run-1", m["run_id"])
}

func TestGetForecastInvalidDate(t *testing.T) {
	conn := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewControlClient(conn).GetForecast(ctx, "bad", "DE")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealthService(t *testing.T) {
	conn := startBufconn(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestCodeForError(t *testing.T) {
	assert.Equal(t, codes.Unavailable, codeForError(helpers.NewTransportError("down", nil)))
	assert.Equal(t, codes.DataLoss, codeForError(helpers.NewMalformedRowError(2, "short row")))
	assert.Equal(t, codes.DeadlineExceeded, codeForError(context.DeadlineExceeded))
	assert.Equal(t, codes.Internal, codeForError(io.ErrUnexpectedEOF))
}
