package grpc

import (
	"context"
	"errors"

	pb "github.com/dmitrijs2005/socguard/internal/proto/authpb"
	"github.com/dmitrijs2005/socguard/internal/server/users"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	identifier, secret := req.GetIdentifier(), req.GetSecret()
	if identifier == "" || secret == "" {
		return nil, status.Error(codes.InvalidArgument, "identifier and secret are required")
	}

	res, err := s.users.Login(ctx, identifier, []byte(secret))
	if err != nil {
		if errors.Is(err, users.ErrUnauthorized) {
			s.logger.Info(ctx, "Login rejected", "identifier", identifier)
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		s.logger.Error(ctx, "Login failed", "identifier", identifier, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.logger.Info(ctx, "Logged in", "identifier", res.User.Identifier, "role", res.User.Role)
	return &pb.LoginResponse{
		Token: res.Token,
		Profile: &pb.Profile{
			Identifier:  res.User.Identifier,
			DisplayName: res.User.DisplayName,
			Role:        res.User.Role,
		},
	}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}
