// Package pb booking_ledger.v1.LedgerServiceのサービス定義
//
// メッセージはprotobufのwell-known type（google.protobuf.StringValue / Struct）を使うため、
// 専用の.protoからのコード生成なしで標準のprotoコーデックに乗る。
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	LedgerServiceName         = "booking_ledger.v1.LedgerService"
	LedgerServiceGetBooking   = "/" + LedgerServiceName + "/GetBooking"
	LedgerServiceGetWallet    = "/" + LedgerServiceName + "/GetWallet"
	LedgerServiceListWalletTx = "/" + LedgerServiceName + "/ListWalletTransactions"
)

// LedgerServiceServer 運用向け参照サービス
type LedgerServiceServer interface {
	// GetBooking オーダー参照で予約と手数料を返す
	GetBooking(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetWallet ユーザーIDでウォレットを返す
	GetWallet(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// ListWalletTransactions ユーザーIDで直近の台帳エントリを返す
	ListWalletTransactions(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// UnimplementedLedgerServiceServer 未実装メソッドのデフォルト
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) GetBooking(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBooking not implemented")
}

func (UnimplementedLedgerServiceServer) GetWallet(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetWallet not implemented")
}

func (UnimplementedLedgerServiceServer) ListWalletTransactions(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListWalletTransactions not implemented")
}

// RegisterLedgerServiceServer サーバーに登録
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// unaryHandler StringValueを受け取るメソッドのハンドラーを作成
func unaryHandler(
	fullMethod string,
	call func(LedgerServiceServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error),
) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerServiceDesc サービス記述子
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetBooking",
			Handler:    unaryHandler(LedgerServiceGetBooking, LedgerServiceServer.GetBooking),
		},
		{
			MethodName: "GetWallet",
			Handler:    unaryHandler(LedgerServiceGetWallet, LedgerServiceServer.GetWallet),
		},
		{
			MethodName: "ListWalletTransactions",
			Handler:    unaryHandler(LedgerServiceListWalletTx, LedgerServiceServer.ListWalletTransactions),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking_ledger/v1/ledger.proto",
}

// LedgerServiceClient クライアント
type LedgerServiceClient interface {
	GetBooking(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetWallet(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListWalletTransactions(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient 新しいクライアントを作成
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc: cc}
}

func (c *ledgerServiceClient) invoke(ctx context.Context, method string, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) GetBooking(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LedgerServiceGetBooking, in, opts...)
}

func (c *ledgerServiceClient) GetWallet(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LedgerServiceGetWallet, in, opts...)
}

func (c *ledgerServiceClient) ListWalletTransactions(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LedgerServiceListWalletTx, in, opts...)
}
