package storev1_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	storev1 "github.com/vladislavdragonenkov/storefront/api/store/v1"
)

type echoServer struct {
	storev1.UnimplementedStoreServiceServer
}

func (echoServer) GetCustomer(_ context.Context, req *storev1.GetCustomerRequest) (*storev1.GetCustomerResponse, error) {
	return &storev1.GetCustomerResponse{Customer: &storev1.Customer{ID: req.CustomerID, Name: "Ann"}}, nil
}

func dial(t *testing.T, srv storev1.StoreServiceServer) storev1.StoreServiceClient {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer()
	storev1.RegisterStoreServiceServer(server, srv)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return storev1.NewStoreServiceClient(conn)
}

func TestCodec(t *testing.T) {
	codec := storev1.Codec{}
	require.Equal(t, "json", codec.Name())

	data, err := codec.Marshal(&storev1.ProductQuantity{ProductID: "p-1", Quantity: 3})
	require.NoError(t, err)
	require.JSONEq(t, `{"product_id":"p-1","quantity":3}`, string(data))

	var decoded storev1.ProductQuantity
	require.NoError(t, codec.Unmarshal(data, &decoded))
	require.Equal(t, int32(3), decoded.Quantity)
	require.NoError(t, codec.Unmarshal(nil, &decoded))
}

func TestStoreService_RoundTripAndUnimplemented(t *testing.T) {
	client := dial(t, echoServer{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.GetCustomer(ctx, &storev1.GetCustomerRequest{CustomerID: "c-1"})
	require.NoError(t, err)
	require.Equal(t, "c-1", resp.Customer.ID)
	require.Equal(t, "Ann", resp.Customer.Name)

	_, err = client.CreateOrder(ctx, &storev1.CreateOrderRequest{CustomerID: "c-1"})
	require.Equal(t, codes.Unimplemented, status.Code(err))
}
