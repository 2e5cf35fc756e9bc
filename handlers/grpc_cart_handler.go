package handlers

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"storefront-service/internal/apperr"
	"storefront-service/pkg/logkey"
)

const getCartDetailsMethod = "/cart.CartItemService/GetCartDetails"

// CartItemServer lets other services read a user's cart lines over gRPC.
// The request is the user id; the response carries user_id, total_items and cart_items.
// A user without a cart gets NotFound; no cart is created.
type CartItemServer interface {
	GetCartDetails(ctx context.Context, userID *wrapperspb.Int64Value) (*structpb.Struct, error)
}

var cartItemServiceDesc = grpc.ServiceDesc{
	ServiceName: "cart.CartItemService",
	HandlerType: (*CartItemServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCartDetails", Handler: getCartDetailsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cart.proto",
}

func getCartDetailsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CartItemServer).GetCartDetails(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getCartDetailsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CartItemServer).GetCartDetails(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

type cartItemService struct {
	carts Carts
}

func NewCartItemServiceHandler(carts Carts) CartItemServer {
	return &cartItemService{carts: carts}
}

// RegisterCartItemService mounts the cart service on s.
func RegisterCartItemService(s grpc.ServiceRegistrar, srv CartItemServer) {
	s.RegisterService(&cartItemServiceDesc, srv)
}

func (s *cartItemService) GetCartDetails(ctx context.Context, request *wrapperspb.Int64Value) (*structpb.Struct, error) {
	userID := request.GetValue()
	if userID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "user id must be positive")
	}

	found, err := s.carts.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "cart not found: %v", err)
		}
		slog.Error("failed to get cart details", slog.Int64(logkey.UserID, userID), slog.String(logkey.ERROR, err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to get cart details: %v", err)
	}

	lines := make([]any, 0, len(found.Items))
	for _, item := range found.Items {
		lines = append(lines, map[string]any{
			"product_id": item.Product.ID,
			"quantity":   item.Quantity,
			"price":      item.Product.Price.String(),
		})
	}
	resp, err := structpb.NewStruct(map[string]any{
		"user_id":     userID,
		"total_items": found.TotalItems,
		"cart_items":  lines,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode cart details: %v", err)
	}
	return resp, nil
}

// GetCartDetails calls the cart service over cc.
func GetCartDetails(ctx context.Context, cc grpc.ClientConnInterface, userID int64) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, getCartDetailsMethod, wrapperspb.Int64(userID), out); err != nil {
		return nil, err
	}
	return out, nil
}
