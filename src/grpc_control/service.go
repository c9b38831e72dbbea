package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"energy-forecast/src/config"
	"energy-forecast/src/helpers"
	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/pipeline"
	"energy-forecast/src/utils"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultGrpcPort = 9090

// ControlService implements ControlServer
type ControlService struct {
	Config    *config.Config
	Store     interfaces.ICacheStore
	Forecasts pipeline.Executor
	Exchanger interfaces.IDataExchanger
	Logger    *logger.Logger

	mu     sync.Mutex
	server *grpc.Server
	health *health.Server
}

// NewControlService creates a new instance of ControlService
func NewControlService(
	cfg *config.Config,
	store interfaces.ICacheStore,
	forecasts pipeline.Executor,
	exchanger interfaces.IDataExchanger,
	log *logger.Logger,
) *ControlService {
	return &ControlService{
		Config:    cfg,
		Store:     store,
		Forecasts: forecasts,
		Exchanger: exchanger,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Register builds the grpc.Server with the control and health services.
func (s *ControlService) Register() *grpc.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return s.server
	}

	s.server = grpc.NewServer()
	s.health = health.NewServer()

	RegisterControlServer(s.server, s)
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s.server
}

// Serve blocks serving on lis until Stop.
func (s *ControlService) Serve(lis net.Listener) error {
	srv := s.Register()
	s.Logger.Info("Starting gRPC Control Server on %s", lis.Addr())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Start listens on grpc_host:grpc_port and serves.
func (s *ControlService) Start() error {
	port := s.Config.GrpcPort
	if port == 0 {
		port = defaultGrpcPort
	}
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.Config.GrpcHost, port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return s.Serve(lis)
}

func (s *ControlService) Stop() {
	s.mu.Lock()
	srv, hs := s.server, s.health
	s.mu.Unlock()
	if srv == nil {
		return
	}
	hs.Shutdown()
	srv.GracefulStop()
}

// -----------------------------------------------------------------------------
// RPCs
// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	regions := make([]interface{}, 0, len(s.Config.Regions))
	for _, r := range s.Config.Regions {
		regions = append(regions, r)
	}

	fields := map[string]interface{}{
		"name":           s.Config.Name,
		"validation":     s.Config.Cache.Validation,
		"regions":        regions,
		"default_region": s.Config.DefaultRegion,
		"today":          utils.Today(s.Config.Location()),
		"cache_backend":  "none",
		"cache_entries":  -1,
		"connections":    0,
	}

	if s.Store != nil {
		fields["cache_backend"] = s.Store.Name()
		if n, err := s.Store.Count(ctx); err != nil {
			s.Logger.Warning("gRPC: cache count failed: %v", err)
		} else {
			fields["cache_entries"] = n
		}
	}
	if s.Exchanger != nil {
		fields["connections"] = s.Exchanger.Connections()
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetForecast(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sel := pipeline.Selection{
		Date:   strings.TrimSpace(req.GetFields()["date"].GetStringValue()),
		Region: strings.TrimSpace(req.GetFields()["region"].GetStringValue()),
	}
	if sel.Region == "" {
		sel.Region = s.Config.DefaultRegion
	}
	if sel.Date == "" {
		sel.Date = utils.Today(s.Config.Location())
	}

	start := time.Now()
	set, err := s.Forecasts.Run(ctx, sel)
	if err != nil {
		return nil, status.Error(codeForError(err), err.Error())
	}

	// Round trip through JSON so rows keep their flattened shape.
	data, err := json.Marshal(set)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode forecast: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "encode forecast: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode forecast: %v", err)
	}

	s.Logger.Info("gRPC: GetForecast %s served in %v", sel, time.Since(start).Round(time.Millisecond))
	return out, nil
}

// -----------------------------------------------------------------------------

func codeForError(err error) codes.Code {
	var malformed *helpers.MalformedRowError
	var transport *helpers.TransportError

	switch {
	case errors.Is(err, helpers.ErrInvalidDate):
		return codes.InvalidArgument
	case errors.As(err, &malformed):
		return codes.DataLoss
	case errors.As(err, &transport):
		return codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}
