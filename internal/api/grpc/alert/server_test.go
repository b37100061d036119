package alert

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/repository/record"
)

// errStorage is returned by the failing fake.
var errStorage = errors.New("disk is full")

// fakeService implements the Service interface on top of an in-memory hub.
type fakeService struct {
	// hub holds the record.
	hub *record.Hub
	// replaceErr is returned by ReplaceRecord when set.
	replaceErr error
}

// newFakeService creates a fake holding an INACTIVE record.
func newFakeService() *fakeService {
	return &fakeService{hub: record.NewMemoryStore(nil)}
}

// Get returns the hub record.
func (f *fakeService) Get(ctx context.Context) (*alert.Record, error) {
	return f.hub.Get(ctx)
}

// Replace stores the record unless replaceErr is set.
func (f *fakeService) Replace(ctx context.Context, r *alert.Record) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}

	return f.hub.Replace(ctx, r)
}

// Subscribe subscribes to the hub.
func (f *fakeService) Subscribe(ctx context.Context, handler record.Handler) (record.Disposer, error) {
	return f.hub.Subscribe(ctx, handler)
}

// startServer serves the fake over an in-memory listener and returns a connected client.
func startServer(t *testing.T, service Service) *AlertStoreClient {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterAlertStoreServer(server, NewServer(service))

	go func() {
		//nolint:errcheck // Serve returns once the server is stopped.
		server.Serve(listener)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, conn.Close())
		server.Stop()
	})

	return NewAlertStoreClient(conn)
}

// emergencyStruct builds the transport message of a valid ACTIVE record.
func emergencyStruct(t *testing.T, name string) (*alert.Record, *structpb.Struct) {
	t.Helper()

	r, err := alert.NewEmergency(time.UnixMilli(1_700_000_000_000), alert.Emergency{Name: name})
	require.NoError(t, err)

	st, err := alert.ToStruct(r)
	require.NoError(t, err)

	return r, st
}

// TestServer_Replace_Validation ensures invalid requests return InvalidArgument errors.
func TestServer_Replace_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(newFakeService())

	_, err := s.Replace(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	invalid, err := structpb.NewStruct(map[string]any{"status": "ACTIVE", "nama": ""})
	require.NoError(t, err)

	_, err = s.Replace(context.Background(), invalid)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_Replace_StorageFailure ensures persistence failures map to Internal.
func TestServer_Replace_StorageFailure(t *testing.T) {
	t.Parallel()

	service := newFakeService()
	service.replaceErr = errStorage

	_, st := emergencyStruct(t, "Budi")

	_, err := NewServer(service).Replace(context.Background(), st)
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestServer_Roundtrip exercises Replace and Get through a real gRPC connection.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	client := startServer(t, newFakeService())

	got, err := client.Get(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, "INACTIVE", got.GetFields()["status"].GetStringValue())

	want, st := emergencyStruct(t, "Budi")

	_, err = client.Replace(context.Background(), st)
	require.NoError(t, err)

	got, err = client.Get(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)

	decoded, err := alert.FromStruct(got)
	require.NoError(t, err)
	require.True(t, want.Equal(decoded))
}

// TestServer_Subscribe verifies the stream starts with the current record and follows replacements.
func TestServer_Subscribe(t *testing.T) {
	t.Parallel()

	client := startServer(t, newFakeService())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Subscribe(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	first, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, "INACTIVE", first.GetFields()["status"].GetStringValue())

	want, st := emergencyStruct(t, "Sari")

	_, err = client.Replace(ctx, st)
	require.NoError(t, err)

	second, err := stream.Recv()
	require.NoError(t, err)

	decoded, err := alert.FromStruct(second)
	require.NoError(t, err)
	require.True(t, want.Equal(decoded))
}
