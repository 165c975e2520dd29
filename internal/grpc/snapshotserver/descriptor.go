package snapshotserver

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/structpb"
)

// DescriptorPath is the proto file that declares the snapshot service.
const DescriptorPath = "ctf/v1/snapshot.proto"

var (
	registerOnce  sync.Once
	registerError error
)

// snapshotFileProto is the equivalent of:
//
//	syntax = "proto3";
//	package ctf.v1;
//	import "google/protobuf/empty.proto";
//	import "google/protobuf/struct.proto";
//	service SnapshotService {
//	  rpc GetSnapshot(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
func snapshotFileProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(DescriptorPath),
		Package: proto.String("ctf.v1"),
		Dependency: []string{
			"google/protobuf/empty.proto",
			"google/protobuf/struct.proto",
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("SnapshotService"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("GetSnapshot"),
				InputType:  proto.String(".google.protobuf.Empty"),
				OutputType: proto.String(".google.protobuf.Struct"),
			}},
		}},
		Syntax: proto.String("proto3"),
	}
}

// RegisterDescriptor adds the snapshot service's file descriptor to the
// global registry so server reflection can describe it. Safe to call more
// than once.
func RegisterDescriptor() error {
	registerOnce.Do(func() {
		if _, err := protoregistry.GlobalFiles.FindFileByPath(DescriptorPath); err == nil {
			return
		}
		var fd protoreflect.FileDescriptor
		fd, registerError = protodesc.NewFile(snapshotFileProto(), protoregistry.GlobalFiles)
		if registerError != nil {
			registerError = fmt.Errorf("failed to build %s: %w", DescriptorPath, registerError)
			return
		}
		registerError = protoregistry.GlobalFiles.RegisterFile(fd)
	})
	return registerError
}
