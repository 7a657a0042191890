package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// 各サービスのメッセージは google.protobuf.Struct で、キーはキャメルケースのフィールド名です。
const (
	EngineerServiceName   = "capacity.v1.EngineerService"
	ProjectServiceName    = "capacity.v1.ProjectService"
	AssignmentServiceName = "capacity.v1.AssignmentService"
)

type unaryFunc func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// EngineerServiceServer は EngineerService のサーバー実装です。
type EngineerServiceServer interface {
	CreateEngineer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetEngineer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListEngineers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateEngineer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ProjectServiceServer は ProjectService のサーバー実装です。
type ProjectServiceServer interface {
	CreateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListProjects(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateProjectStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// AssignmentServiceServer は AssignmentService のサーバー実装です。
type AssignmentServiceServer interface {
	CreateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ValidateAssignment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAssignments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetEngineerCapacity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetTeamOverview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// EngineerServiceDesc は EngineerService の登録情報です。
var EngineerServiceDesc = grpc.ServiceDesc{
	ServiceName: EngineerServiceName,
	HandlerType: (*EngineerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(EngineerServiceName, "CreateEngineer", func(srv any) unaryFunc { return srv.(EngineerServiceServer).CreateEngineer }),
		unaryMethod(EngineerServiceName, "GetEngineer", func(srv any) unaryFunc { return srv.(EngineerServiceServer).GetEngineer }),
		unaryMethod(EngineerServiceName, "ListEngineers", func(srv any) unaryFunc { return srv.(EngineerServiceServer).ListEngineers }),
		unaryMethod(EngineerServiceName, "UpdateEngineer", func(srv any) unaryFunc { return srv.(EngineerServiceServer).UpdateEngineer }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "capacity/v1/engineer.proto",
}

// ProjectServiceDesc は ProjectService の登録情報です。
var ProjectServiceDesc = grpc.ServiceDesc{
	ServiceName: ProjectServiceName,
	HandlerType: (*ProjectServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(ProjectServiceName, "CreateProject", func(srv any) unaryFunc { return srv.(ProjectServiceServer).CreateProject }),
		unaryMethod(ProjectServiceName, "GetProject", func(srv any) unaryFunc { return srv.(ProjectServiceServer).GetProject }),
		unaryMethod(ProjectServiceName, "ListProjects", func(srv any) unaryFunc { return srv.(ProjectServiceServer).ListProjects }),
		unaryMethod(ProjectServiceName, "UpdateProjectStatus", func(srv any) unaryFunc { return srv.(ProjectServiceServer).UpdateProjectStatus }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "capacity/v1/project.proto",
}

// AssignmentServiceDesc は AssignmentService の登録情報です。
var AssignmentServiceDesc = grpc.ServiceDesc{
	ServiceName: AssignmentServiceName,
	HandlerType: (*AssignmentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(AssignmentServiceName, "CreateAssignment", func(srv any) unaryFunc { return srv.(AssignmentServiceServer).CreateAssignment }),
		unaryMethod(AssignmentServiceName, "ValidateAssignment", func(srv any) unaryFunc { return srv.(AssignmentServiceServer).ValidateAssignment }),
		unaryMethod(AssignmentServiceName, "ListAssignments", func(srv any) unaryFunc { return srv.(AssignmentServiceServer).ListAssignments }),
		unaryMethod(AssignmentServiceName, "GetEngineerCapacity", func(srv any) unaryFunc { return srv.(AssignmentServiceServer).GetEngineerCapacity }),
		unaryMethod(AssignmentServiceName, "GetTeamOverview", func(srv any) unaryFunc { return srv.(AssignmentServiceServer).GetTeamOverview }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "capacity/v1/assignment.proto",
}

// RegisterEngineerServiceServer は EngineerService を登録します。
func RegisterEngineerServiceServer(s grpc.ServiceRegistrar, srv EngineerServiceServer) {
	s.RegisterService(&EngineerServiceDesc, srv)
}

// RegisterProjectServiceServer は ProjectService を登録します。
func RegisterProjectServiceServer(s grpc.ServiceRegistrar, srv ProjectServiceServer) {
	s.RegisterService(&ProjectServiceDesc, srv)
}

// RegisterAssignmentServiceServer は AssignmentService を登録します。
func RegisterAssignmentServiceServer(s grpc.ServiceRegistrar, srv AssignmentServiceServer) {
	s.RegisterService(&AssignmentServiceDesc, srv)
}

// FullMethod は "/service/method" 形式のメソッド名を返します。
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

func unaryMethod(service, method string, pick func(srv any) unaryFunc) grpc.MethodDesc {
	fullMethod := FullMethod(service, method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := pick(srv)
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(ctx, req.(*structpb.Struct))
			})
		},
	}
}
