// Package authpb holds the generated code for the socguard.auth.v1.AuthService
// gRPC contract defined in auth.proto.
//
//go:generate protoc --go_out=. --go_opt=paths=source_relative --go-grpc_out=. --go-grpc_opt=paths=source_relative auth.proto
package authpb
