package lowerd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
)

// LoweringGRPCServer implements LoweringServiceServer on top of an Executor.
type LoweringGRPCServer struct {
	UnimplementedLoweringServiceServer
	store    *JobStore
	Executor *Executor
}

// NewLoweringGRPCServer creates a new LoweringGRPCServer with the provided Executor.
func NewLoweringGRPCServer(executor *Executor) *LoweringGRPCServer {
	return &LoweringGRPCServer{
		store:    executor.Store(),
		Executor: executor,
	}
}

// NewGRPCServer returns a grpc.Server with the lowering service and the
// standard health service registered.
func NewGRPCServer(executor *Executor, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	RegisterLoweringServiceServer(s, NewLoweringGRPCServer(executor))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(LoweringServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}

func (s *LoweringGRPCServer) Lower(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := decodeStruct[JobInput](req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if input.ModelYAML == "" {
		return nil, status.Error(codes.InvalidArgument, "model_yaml is required")
	}

	res, err := s.Executor.Lower(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidModel):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	return encodeStruct(map[string]any{
		"output":      res.Output,
		"diagnostics": convertDiagnostics(res.Diagnostics),
		"metrics":     res.Metrics,
	})
}

func (s *LoweringGRPCServer) SubmitJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := decodeStruct[JobInput](req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if input.ModelYAML == "" {
		return nil, status.Error(codes.InvalidArgument, "model_yaml is required")
	}

	job, err := s.Executor.Submit(input)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	logger.Info("job submitted", "job_id", job.ID)
	return encodeStruct(map[string]any{"job": job})
}

func (s *LoweringGRPCServer) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	jobID := jobIDOf(req)
	if jobID == "" {
		return nil, status.Error(codes.InvalidArgument, ErrJobIDMissing.Error())
	}
	job, ok := s.store.Get(jobID)
	if !ok {
		return nil, status.Error(codes.NotFound, "job not found")
	}
	resp := map[string]any{"job": job}
	if job.Status == JobCompleted {
		if out, err := s.store.Output(jobID); err == nil {
			resp["output"] = out
		}
	}
	return encodeStruct(resp)
}

func (s *LoweringGRPCServer) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, offset := 50, 0
	var filter JobStatus
	if req != nil {
		fields := req.GetFields()
		if v, ok := fields["limit"]; ok && v.GetNumberValue() > 0 {
			limit = int(v.GetNumberValue())
		}
		if v, ok := fields["offset"]; ok && v.GetNumberValue() > 0 {
			offset = int(v.GetNumberValue())
		}
		if v, ok := fields["status"]; ok {
			filter = ParseJobStatus(v.GetStringValue())
		}
	}
	return encodeStruct(map[string]any{"jobs": s.store.List(limit, offset, filter)})
}

func (s *LoweringGRPCServer) CancelJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	jobID := jobIDOf(req)
	if jobID == "" {
		return nil, status.Error(codes.InvalidArgument, ErrJobIDMissing.Error())
	}

	job, err := s.Executor.Cancel(jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		if errors.Is(err, ErrJobTerminal) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	logger.Info("job cancelled", "job_id", jobID)
	return encodeStruct(map[string]any{"job": job})
}

func jobIDOf(req *structpb.Struct) string {
	if req == nil {
		return ""
	}
	return req.GetFields()["job_id"].GetStringValue()
}

// decodeStruct maps a Struct onto T through its JSON form.
func decodeStruct[T any](s *structpb.Struct) (*T, error) {
	var out T
	if s == nil {
		return &out, nil
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &out, nil
}

// encodeStruct converts v into a Struct through its JSON form.
func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
