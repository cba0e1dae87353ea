package storev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName — полное имя gRPC-сервиса.
const ServiceName = "store.v1.StoreService"

// Полные имена методов StoreService.
const (
	CreateCustomerFullMethodName          = "/" + ServiceName + "/CreateCustomer"
	GetCustomerFullMethodName             = "/" + ServiceName + "/GetCustomer"
	CreateProductFullMethodName           = "/" + ServiceName + "/CreateProduct"
	GetProductFullMethodName              = "/" + ServiceName + "/GetProduct"
	UpdateProductQuantitiesFullMethodName = "/" + ServiceName + "/UpdateProductQuantities"
	CreateOrderFullMethodName             = "/" + ServiceName + "/CreateOrder"
	GetOrderFullMethodName                = "/" + ServiceName + "/GetOrder"
	ListCustomerOrdersFullMethodName      = "/" + ServiceName + "/ListCustomerOrders"
)

// StoreServiceServer — серверная часть StoreService.
type StoreServiceServer interface {
	CreateCustomer(context.Context, *CreateCustomerRequest) (*CreateCustomerResponse, error)
	GetCustomer(context.Context, *GetCustomerRequest) (*GetCustomerResponse, error)
	CreateProduct(context.Context, *CreateProductRequest) (*CreateProductResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error)
	UpdateProductQuantities(context.Context, *UpdateProductQuantitiesRequest) (*UpdateProductQuantitiesResponse, error)
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error)
	ListCustomerOrders(context.Context, *ListCustomerOrdersRequest) (*ListCustomerOrdersResponse, error)
	mustEmbedUnimplementedStoreServiceServer()
}

// UnimplementedStoreServiceServer отвечает Unimplemented на все методы.
// Встраивается в реализации для совместимости при добавлении методов.
type UnimplementedStoreServiceServer struct{}

func (UnimplementedStoreServiceServer) CreateCustomer(context.Context, *CreateCustomerRequest) (*CreateCustomerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateCustomer not implemented")
}

func (UnimplementedStoreServiceServer) GetCustomer(context.Context, *GetCustomerRequest) (*GetCustomerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCustomer not implemented")
}

func (UnimplementedStoreServiceServer) CreateProduct(context.Context, *CreateProductRequest) (*CreateProductResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateProduct not implemented")
}

func (UnimplementedStoreServiceServer) GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProduct not implemented")
}

func (UnimplementedStoreServiceServer) UpdateProductQuantities(context.Context, *UpdateProductQuantitiesRequest) (*UpdateProductQuantitiesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProductQuantities not implemented")
}

func (UnimplementedStoreServiceServer) CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateOrder not implemented")
}

func (UnimplementedStoreServiceServer) GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOrder not implemented")
}

func (UnimplementedStoreServiceServer) ListCustomerOrders(context.Context, *ListCustomerOrdersRequest) (*ListCustomerOrdersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListCustomerOrders not implemented")
}

func (UnimplementedStoreServiceServer) mustEmbedUnimplementedStoreServiceServer() {}

// RegisterStoreServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterStoreServiceServer(s grpc.ServiceRegistrar, srv StoreServiceServer) {
	s.RegisterService(&StoreService_ServiceDesc, srv)
}

func _StoreService_CreateCustomer_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateCustomerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).CreateCustomer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CreateCustomerFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).CreateCustomer(ctx, req.(*CreateCustomerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StoreService_GetCustomer_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetCustomerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).GetCustomer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetCustomerFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).GetCustomer(ctx, req.(*GetCustomerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StoreService_CreateProduct_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateProductRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).CreateProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CreateProductFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).CreateProduct(ctx, req.(*CreateProductRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StoreService_GetProduct_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetProductRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetProductFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).GetProduct(ctx, req.(*GetProductRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StoreService_UpdateProductQuantities_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateProductQuantitiesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).UpdateProductQuantities(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: UpdateProductQuantitiesFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).UpdateProductQuantities(ctx, req.(*UpdateProductQuantitiesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StoreService_CreateOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).CreateOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CreateOrderFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).CreateOrder(ctx, req.(*CreateOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StoreService_GetOrder_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetOrderFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).GetOrder(ctx, req.(*GetOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _StoreService_ListCustomerOrders_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListCustomerOrdersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServiceServer).ListCustomerOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ListCustomerOrdersFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StoreServiceServer).ListCustomerOrders(ctx, req.(*ListCustomerOrdersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// StoreService_ServiceDesc — описание сервиса для grpc.Server.
var StoreService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StoreServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateCustomer",
			Handler:    _StoreService_CreateCustomer_Handler,
		},
		{
			MethodName: "GetCustomer",
			Handler:    _StoreService_GetCustomer_Handler,
		},
		{
			MethodName: "CreateProduct",
			Handler:    _StoreService_CreateProduct_Handler,
		},
		{
			MethodName: "GetProduct",
			Handler:    _StoreService_GetProduct_Handler,
		},
		{
			MethodName: "UpdateProductQuantities",
			Handler:    _StoreService_UpdateProductQuantities_Handler,
		},
		{
			MethodName: "CreateOrder",
			Handler:    _StoreService_CreateOrder_Handler,
		},
		{
			MethodName: "GetOrder",
			Handler:    _StoreService_GetOrder_Handler,
		},
		{
			MethodName: "ListCustomerOrders",
			Handler:    _StoreService_ListCustomerOrders_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "store/v1/store.json",
}
