// Package ner provides the model-backed drug mention extractor.  It talks to
// an external token-classification service over gRPC; the service is an
// optional capability and every failure degrades to an empty result.
package ner

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Entity is a single labelled span returned by the token-classification model.
type Entity struct {
	Word        string  `json:"word"`
	EntityGroup string  `json:"entity_group"`
	Score       float64 `json:"score"`
}

// Client defines the interface to the NER serving backend.
type Client interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
	Healthy(ctx context.Context) error
	Close() error
}

const recognizeMethod = "/medrx.ner.v1.NERService/Recognize"

// grpcClient implements Client against the serving sidecar.  The wire format
// is a struct-typed request/response so the client does not need generated
// stubs for the serving proto.
type grpcClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	logger  logging.Logger
}

// NewGRPCClient dials the serving address.  The connection is lazy; use
// Healthy to probe actual availability.
func NewGRPCClient(address string, timeout time.Duration, logger logging.Logger) (Client, error) {
	if address == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "ner serving address cannot be empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelUnavailable, "dial ner serving")
	}
	return &grpcClient{conn: conn, timeout: timeout, logger: logger.Named("ner.client")}, nil
}

func (c *grpcClient) Recognize(ctx context.Context, text string) ([]Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]interface{}{"text": text})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelInference, "encode ner request")
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, recognizeMethod, req, resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelInference, "ner recognize")
	}
	return decodeEntities(resp), nil
}

func decodeEntities(resp *structpb.Struct) []Entity {
	field, ok := resp.GetFields()["entities"]
	if !ok {
		return nil
	}
	list := field.GetListValue()
	if list == nil {
		return nil
	}
	entities := make([]Entity, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			continue
		}
		fields := s.GetFields()
		entities = append(entities, Entity{
			Word:        fields["word"].GetStringValue(),
			EntityGroup: fields["entity_group"].GetStringValue(),
			Score:       fields["score"].GetNumberValue(),
		})
	}
	return entities
}

func (c *grpcClient) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := grpc_health_v1.NewHealthClient(c.conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeModelUnavailable, "ner health check")
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return errors.New(errors.ErrCodeModelUnavailable, "ner serving not ready")
	}
	return nil
}

func (c *grpcClient) Close() error {
	return c.conn.Close()
}
