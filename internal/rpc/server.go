// Package rpc implements the JSON-RPC 2.0 API server and the wire types
// shared with the client.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rooch-network/rooch-go/config"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// Backend answers the methods the server exposes. Returning an *Error
// passes the code through to the caller; any other error is reported as
// an internal error.
type Backend interface {
	Version() string
	ChainID() uint64
	GetStates(accessPath string, opts StateOptions) ([]*ObjectStateView, error)
	ExecuteViewFunction(call FunctionCallView) (*ExecuteResult, error)
}

// Server is the JSON-RPC 2.0 HTTP server.
type Server struct {
	addr        string
	backend     Backend
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.
	metrics     *ServerMetrics
}

// New creates a new RPC server serving backend on addr.
func New(addr string, backend Backend, nodeCfg ...config.NodeConfig) *Server {
	s := &Server{
		addr:    addr,
		backend: backend,
		logger:  klog.WithComponent("rpc"),
	}

	if len(nodeCfg) > 0 {
		s.allowedNets = parseAllowedIPs(nodeCfg[0].AllowedIPs)
		s.corsOrigins = nodeCfg[0].CORSOrigins
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		_, ipNet, err := net.ParseCIDR(entry)
		if err == nil {
			nets = append(nets, ipNet)
			continue
		}
		// Try as a single IP (add /32 or /128).
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("RPC server listening")
	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// URL returns the http URL of the bound listener.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	// IP filtering.
	if len(s.allowedNets) > 0 {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ip := net.ParseIP(host)
		if ip == nil || !s.isIPAllowed(ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	// CORS headers.
	s.setCORSHeaders(w, r)

	// Handle CORS preflight.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}

	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	result, rpcErr := s.dispatch(&req)
	s.observe(req.Method, rpcErr)
	if rpcErr != nil {
		s.logger.Debug().Str("method", req.Method).Int("code", rpcErr.Code).Msg(rpcErr.Message)
		writeJSON(w, Response{
			JSONRPC: "2.0",
			Error:   rpcErr,
			ID:      req.ID,
		})
		return
	}

	writeJSON(w, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	})
}

func (s *Server) dispatch(req *Request) (interface{}, *Error) {
	switch req.Method {
	case MethodDiscover:
		return s.handleDiscover()
	case MethodGetChainID:
		return StrU64(s.backend.ChainID()), nil
	case MethodGetStates:
		return s.handleGetStates(req)
	case MethodExecuteViewFunction:
		return s.handleExecuteViewFunction(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

func (s *Server) handleDiscover() (interface{}, *Error) {
	return &DiscoverResult{
		OpenRPC: "1.2.6",
		Info: DiscoverInfo{
			Title:   "Rooch JSON-RPC",
			Version: s.backend.Version(),
		},
		Methods: []MethodInfo{
			{Name: MethodGetChainID},
			{Name: MethodGetStates},
			{Name: MethodExecuteViewFunction},
		},
	}, nil
}

func (s *Server) handleGetStates(req *Request) (interface{}, *Error) {
	var params []json.RawMessage
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if len(params) < 1 || len(params) > 2 {
		return nil, &Error{Code: CodeInvalidParams, Message: "want [access_path, state_options?]"}
	}

	var path string
	if err := json.Unmarshal(params[0], &path); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "access_path must be a string"}
	}
	var opts StateOptions
	if len(params) == 2 && string(params[1]) != "null" {
		if err := json.Unmarshal(params[1], &opts); err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid state_options: %v", err)}
		}
	}

	states, err := s.backend.GetStates(path, opts)
	if err != nil {
		return nil, backendError(err)
	}
	return states, nil
}

func (s *Server) handleExecuteViewFunction(req *Request) (interface{}, *Error) {
	var params []FunctionCallView
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if len(params) != 1 {
		return nil, &Error{Code: CodeInvalidParams, Message: "want [function_call]"}
	}

	result, err := s.backend.ExecuteViewFunction(params[0])
	if err != nil {
		return nil, backendError(err)
	}
	return result, nil
}

func backendError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}

	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// parseParams unmarshals the request params into the given target.
func parseParams(req *Request, target interface{}) *Error {
	if req.Params == nil {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}

	data, err := json.Marshal(req.Params)
	if err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params"}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
