package handler

import (
	"context"
	"testing"

	"github.com/ogurasousui/engineer-capacity/internal/core/session"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func managerCtx() context.Context {
	return session.WithSession(context.Background(), "mgr-token", session.User{ID: "mgr-1", Role: session.RoleManager})
}

func engineerCtx(id string) context.Context {
	return session.WithSession(context.Background(), "eng-token", session.User{ID: id, Role: session.RoleEngineer})
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("failed to build struct: %v", err)
	}
	return s
}

func assertCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if status.Code(err) != want {
		t.Fatalf("expected %s, got %v", want, err)
	}
}
