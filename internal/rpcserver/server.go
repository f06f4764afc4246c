// Package rpcserver implements the host side of the plugin RPC
// channel (spec.md §6): a loopback gRPC endpoint accepting a unary
// `event` call and a client-streamed `log` call, grounded in
// original_source's server/server.rs. The wire contract is documented
// in proto/omniled.proto; the concrete Go types below are bound
// directly to google.protobuf.Struct (already generated and vendored
// by google.golang.org/protobuf) rather than protoc-generated message
// types, since protoc is not invoked in this build — see DESIGN.md.
package rpcserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/omniled/omniled/internal/eventqueue"
	"github.com/omniled/omniled/internal/logging"
	"github.com/omniled/omniled/internal/wire"
)

var log = logging.For("rpcserver")

// maxMessageBytes caps request/response sizes, matching server.rs's
// max_decoding_message_size/max_encoding_message_size of 64 MiB.
const maxMessageBytes = 64 * 1024 * 1024

var identifierPattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// Info is the contents of server.json and the source of the
// script-visible PLATFORM.Server address and port, matching
// server.rs's ServerInfo.
type Info struct {
	Address   string `json:"address"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	Timestamp int64  `json:"timestamp"`
}

// Server binds a loopback gRPC listener and pushes decoded events into
// the shared queue.
type Server struct {
	queue          *eventqueue.Queue
	logLevelFilter logging.Level
	grpcServer     *grpc.Server
	listener       net.Listener
	Info           Info
}

// Start binds 127.0.0.1:port (0 lets the OS choose), writes
// server.json under dataDir, and begins serving in the background.
// Matches server.rs's PluginServer::load.
func Start(queue *eventqueue.Queue, port int, logLevelFilter logging.Level, dataDir string) (*Server, error) {
	const localhost = "127.0.0.1"

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", localhost, port))
	if err != nil {
		return nil, fmt.Errorf("bind rpc listener: %w", err)
	}
	boundPort := lis.Addr().(*net.TCPAddr).Port

	s := &Server{
		queue:          queue,
		logLevelFilter: logLevelFilter,
		listener:       lis,
		Info: Info{
			Address:   fmt.Sprintf("%s:%d", localhost, boundPort),
			IP:        localhost,
			Port:      boundPort,
			Timestamp: time.Now().UnixMilli(),
		},
	}

	s.grpcServer = grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMessageBytes),
		grpc.MaxSendMsgSize(maxMessageBytes),
	)
	s.grpcServer.RegisterService(&pluginServiceDesc, s)

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			log.Error("rpc server stopped", "err", err)
		}
	}()

	if dataDir != "" {
		path := filepath.Join(dataDir, "server.json")
		raw, err := json.MarshalIndent(s.Info, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return nil, fmt.Errorf("write server.json: %w", err)
		}
	}

	log.Info("rpc server listening", "address", s.Info.Address)
	return s, nil
}

// Stop gracefully shuts the gRPC server down.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

// event handles the unary Event RPC: validates the name and pushes an
// Application event, mirroring PluginServer::event.
func (s *Server) event(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	name, _ := req.Fields["name"].GetStringValue(), error(nil)
	if !identifierPattern.MatchString(name) {
		return nil, grpcInvalidArgument("invalid event name")
	}

	fieldsStruct := req.Fields["fields"].GetStructValue()
	fields := make(wire.Table)
	if fieldsStruct != nil {
		for k, v := range fieldsStruct.Fields {
			fields[k] = structValueToField(v)
		}
	}

	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindApplication, AppName: name, AppFields: fields})
	return &emptypb.Empty{}, nil
}

// logStream handles the client-streamed Log RPC: every line received
// is logged at its given level immediately, and a single response
// carrying the current log_level_filter is returned once the client
// closes the stream, mirroring PluginServer::log.
func (s *Server) logStream(stream grpc.ServerStream) error {
	for {
		line := new(structpb.Struct)
		if err := stream.RecvMsg(line); err != nil {
			if err == io.EOF {
				break
			}
			log.Debug("log stream closed", "err", err)
			break
		}

		location := line.Fields["location"].GetStringValue()
		message := line.Fields["message"].GetStringValue()
		level := logging.ParseLevel(line.Fields["level"].GetStringValue())
		logging.At(logging.For(location), level, message)
	}

	response, err := structpb.NewStruct(map[string]any{
		"log_level_filter": s.logLevelFilter.String(),
	})
	if err != nil {
		return err
	}
	return stream.SendMsg(response)
}

func grpcInvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// structValueToField converts a decoded google.protobuf.Struct leaf
// into a wire.Field, the mirror image of original_source's
// common.rs proto_to_lua_value (there converting into a Lua value
// instead of this host-side sum type). Images are carried as a nested
// {"format","data"} struct with base64-encoded bytes, since Struct has
// no native bytes type. A present Value_NullValue is the wire-level
// "strong_none" signal (spec.md §9): the key is in the Fields map at
// all, as opposed to being omitted from it, so it converts to an
// explicit clear rather than a bare none (internal/state/tree.go's
// assign relies on ExplicitNone to take the delete branch).
func structValueToField(v *structpb.Value) wire.Field {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return wire.Field{Kind: wire.KindNone, ExplicitNone: true}
	case *structpb.Value_BoolValue:
		return wire.NewBool(kind.BoolValue)
	case *structpb.Value_NumberValue:
		return wire.NewFloat64(kind.NumberValue)
	case *structpb.Value_StringValue:
		return wire.NewString(kind.StringValue)
	case *structpb.Value_ListValue:
		items := make([]wire.Field, 0, len(kind.ListValue.Values))
		for _, item := range kind.ListValue.Values {
			items = append(items, structValueToField(item))
		}
		return wire.NewArray(items)
	case *structpb.Value_StructValue:
		if format, data, ok := asImage(kind.StructValue); ok {
			decoded, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				log.Error("malformed image payload", "format", format, "err", err)
				return wire.Field{Kind: wire.KindImage, Image: wire.Image{Format: format}}
			}
			return wire.Field{Kind: wire.KindImage, Image: wire.Image{Format: format, Bytes: decoded}}
		}
		table := make(wire.Table, len(kind.StructValue.Fields))
		for k, fv := range kind.StructValue.Fields {
			table[k] = structValueToField(fv)
		}
		return wire.NewTable(table)
	default:
		return wire.Field{Kind: wire.KindNone}
	}
}

func asImage(s *structpb.Struct) (format, data string, ok bool) {
	f, hasFormat := s.Fields["format"]
	d, hasData := s.Fields["data"]
	if !hasFormat || !hasData || len(s.Fields) != 2 {
		return "", "", false
	}
	return f.GetStringValue(), d.GetStringValue(), true
}
