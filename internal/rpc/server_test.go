package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rooch-network/rooch-go/config"
)

type stubBackend struct {
	states   map[string][]*ObjectStateView
	lastOpts StateOptions
	lastCall FunctionCallView
	result   *ExecuteResult
	err      error
}

func (b *stubBackend) Version() string { return "0.8.4" }
func (b *stubBackend) ChainID() uint64 { return 4 }

func (b *stubBackend) GetStates(path string, opts StateOptions) ([]*ObjectStateView, error) {
	b.lastOpts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.states[path], nil
}

func (b *stubBackend) ExecuteViewFunction(call FunctionCallView) (*ExecuteResult, error) {
	b.lastCall = call
	if b.err != nil {
		return nil, b.err
	}
	return b.result, nil
}

func setupTestEnv(t *testing.T, cfg ...config.NodeConfig) (*Server, *stubBackend) {
	t.Helper()
	backend := &stubBackend{
		states: map[string][]*ObjectStateView{
			"/object/0x3": {{ID: "0x3", ObjectType: "0x2::object::Root", Size: 12}},
		},
		result: &ExecuteResult{VMStatus: VMStatus{Kind: StatusExecuted}},
	}
	srv := New("127.0.0.1:0", backend, cfg...)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv, backend
}

func rpcCall(t *testing.T, srv *Server, method string, params interface{}) *Response {
	t.Helper()
	body, err := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(srv.URL(), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &out
}

func resultInto(t *testing.T, resp *Response, target interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %v", resp.Error)
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
}

func TestServer_Discover(t *testing.T) {
	srv, _ := setupTestEnv(t)
	var res DiscoverResult
	resultInto(t, rpcCall(t, srv, MethodDiscover, nil), &res)
	if res.Info.Version != "0.8.4" {
		t.Errorf("version = %q, want 0.8.4", res.Info.Version)
	}
	if len(res.Methods) != 3 {
		t.Errorf("methods = %d, want 3", len(res.Methods))
	}
}

func TestServer_ChainID(t *testing.T) {
	srv, _ := setupTestEnv(t)
	resp := rpcCall(t, srv, MethodGetChainID, nil)
	if resp.Error != nil {
		t.Fatalf("error: %v", resp.Error)
	}
	if resp.Result != "4" {
		t.Errorf("chain id = %v, want \"4\"", resp.Result)
	}
}

func TestServer_GetStates(t *testing.T) {
	srv, backend := setupTestEnv(t)

	var states []*ObjectStateView
	resultInto(t, rpcCall(t, srv, MethodGetStates, []interface{}{"/object/0x3", StateOptions{Decode: true, ShowDisplay: true}}), &states)
	if len(states) != 1 || states[0].ID != "0x3" || states[0].Size != 12 {
		t.Fatalf("states = %+v", states)
	}
	if diff := cmp.Diff(StateOptions{Decode: true, ShowDisplay: true}, backend.lastOpts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	// Options are optional.
	resultInto(t, rpcCall(t, srv, MethodGetStates, []interface{}{"/object/0x100"}), &states)
	if len(states) != 0 {
		t.Errorf("missing object states = %+v, want empty", states)
	}
}

func TestServer_GetStatesInvalidParams(t *testing.T) {
	srv, _ := setupTestEnv(t)
	tests := []struct {
		name   string
		params interface{}
	}{
		{"nil", nil},
		{"empty", []interface{}{}},
		{"not a string", []interface{}{42}},
		{"too many", []interface{}{"/object/0x3", nil, nil}},
		{"bad options", []interface{}{"/object/0x3", "yes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := rpcCall(t, srv, MethodGetStates, tt.params)
			if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
				t.Errorf("error = %v, want code %d", resp.Error, CodeInvalidParams)
			}
		})
	}
}

func TestServer_ExecuteViewFunction(t *testing.T) {
	srv, backend := setupTestEnv(t)
	call := FunctionCallView{
		FunctionID: "0x2::account::sequence_number",
		TyArgs:     []string{},
		Args:       []string{"0x" + "00"},
	}

	var res ExecuteResult
	resultInto(t, rpcCall(t, srv, MethodExecuteViewFunction, []interface{}{call}), &res)
	if !res.VMStatus.Executed() {
		t.Errorf("vm status = %s, want Executed", res.VMStatus)
	}
	if diff := cmp.Diff(call, backend.lastCall); diff != "" {
		t.Errorf("call mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_BackendErrors(t *testing.T) {
	srv, backend := setupTestEnv(t)

	backend.err = &Error{Code: CodeInvalidParams, Message: "bad path"}
	resp := rpcCall(t, srv, MethodGetStates, []interface{}{"/nope"})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams || resp.Error.Message != "bad path" {
		t.Errorf("error = %v, want passthrough", resp.Error)
	}

	backend.err = errors.New("disk on fire")
	resp = rpcCall(t, srv, MethodGetStates, []interface{}{"/object/0x3"})
	if resp.Error == nil || resp.Error.Code != CodeInternalError {
		t.Errorf("error = %v, want internal error", resp.Error)
	}
}

func TestServer_MethodNotFound(t *testing.T) {
	srv, _ := setupTestEnv(t)
	resp := rpcCall(t, srv, "rooch_sendRawTransaction", []interface{}{})
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Errorf("error = %v, want method not found", resp.Error)
	}
}

func TestServer_RejectsBadRequests(t *testing.T) {
	srv, _ := setupTestEnv(t)

	resp, err := http.Get(srv.URL())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var out Response
	json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if out.Error == nil || out.Error.Code != CodeInvalidRequest {
		t.Errorf("GET error = %v, want invalid request", out.Error)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{not json`, CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","method":"rpc.discover","id":1}`, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL(), "application/json", bytes.NewReader([]byte(tt.body)))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			var out Response
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Error == nil || out.Error.Code != tt.code {
				t.Errorf("error = %v, want code %d", out.Error, tt.code)
			}
		})
	}

	big := bytes.Repeat([]byte("a"), maxBodySize+10)
	resp, err = http.Post(srv.URL(), "application/json", bytes.NewReader(big))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(data, []byte("too large")) {
		t.Errorf("oversized body response = %s", data)
	}
}

func TestServer_IPFilter(t *testing.T) {
	srv, _ := setupTestEnv(t, config.NodeConfig{AllowedIPs: []string{"10.0.0.0/8"}})

	body, _ := json.Marshal(Request{JSONRPC: "2.0", Method: MethodDiscover, ID: 1})
	resp, err := http.Post(srv.URL(), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	srv2, _ := setupTestEnv(t, config.NodeConfig{AllowedIPs: []string{"127.0.0.1"}})
	var res DiscoverResult
	resultInto(t, rpcCall(t, srv2, MethodDiscover, nil), &res)
}

func TestServer_CORS(t *testing.T) {
	srv, _ := setupTestEnv(t, config.NodeConfig{CORSOrigins: []string{"https://portal.rooch.network"}})

	tests := []struct {
		origin string
		want   string
	}{
		{"https://portal.rooch.network", "https://portal.rooch.network"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL(), nil)
		req.Header.Set("Origin", tt.origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("options: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", resp.StatusCode)
		}
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: allow-origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestParseAllowedIPs(t *testing.T) {
	nets := parseAllowedIPs([]string{"192.168.0.0/16", "10.1.2.3", "::1", "garbage"})
	if len(nets) != 3 {
		t.Fatalf("parsed %d nets, want 3", len(nets))
	}
}

func TestVMStatusJSON(t *testing.T) {
	tests := []struct {
		wire string
		want VMStatus
	}{
		{`"Executed"`, VMStatus{Kind: StatusExecuted}},
		{`"OutOfGas"`, VMStatus{Kind: StatusOutOfGas}},
		{`{"MoveAbort":{"location":"0x3::address_mapping","abort_code":"1"}}`,
			VMStatus{Kind: StatusMoveAbort, Location: "0x3::address_mapping", AbortCode: 1}},
		{`{"ExecutionFailure":{"location":"0x2::m","function":1,"code_offset":2,"status_code":"4016"}}`,
			VMStatus{Kind: StatusExecutionFailure, Location: "0x2::m", Function: 1, CodeOffset: 2, StatusCode: 4016}},
		{`{"Error":"FUNCTION_RESOLUTION_FAILURE"}`,
			VMStatus{Kind: StatusError, Message: "FUNCTION_RESOLUTION_FAILURE"}},
	}
	for _, tt := range tests {
		var got VMStatus
		if err := json.Unmarshal([]byte(tt.wire), &got); err != nil {
			t.Errorf("unmarshal %s: %v", tt.wire, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("unmarshal %s (-want +got):\n%s", tt.wire, diff)
		}
		enc, err := json.Marshal(got)
		if err != nil {
			t.Errorf("marshal %s: %v", tt.wire, err)
			continue
		}
		if string(enc) != tt.wire {
			t.Errorf("marshal = %s, want %s", enc, tt.wire)
		}
	}

	var bad VMStatus
	if err := json.Unmarshal([]byte(`{"A":1,"B":2}`), &bad); err == nil {
		t.Error("two-variant status should fail")
	}
}

func TestStrU64(t *testing.T) {
	var n StrU64
	for _, in := range []string{`"18446744073709551615"`, `18446744073709551615`} {
		if err := json.Unmarshal([]byte(in), &n); err != nil || n != StrU64(^uint64(0)) {
			t.Errorf("unmarshal %s = %d, %v", in, n, err)
		}
	}
	if err := json.Unmarshal([]byte(`"-1"`), &n); err == nil {
		t.Error("negative should fail")
	}
	enc, _ := json.Marshal(StrU64(7))
	if string(enc) != `"7"` {
		t.Errorf("marshal = %s", enc)
	}
}

func TestServer_Metrics(t *testing.T) {
	m := NewServerMetrics(prometheus.NewRegistry())
	srv := New("127.0.0.1:0", &stubBackend{})
	srv.SetMetrics(m)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })

	rpcCall(t, srv, MethodDiscover, nil)
	rpcCall(t, srv, MethodDiscover, nil)
	rpcCall(t, srv, "rooch_nope", nil)
	rpcCall(t, srv, MethodGetStates, []interface{}{})

	tests := []struct {
		method, code string
		want         float64
	}{
		{MethodDiscover, "0", 2},
		{"unknown", strconv.Itoa(CodeMethodNotFound), 1},
		{MethodGetStates, strconv.Itoa(CodeInvalidParams), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.Requests.WithLabelValues(tt.method, tt.code)); got != tt.want {
			t.Errorf("requests{%s,%s} = %v, want %v", tt.method, tt.code, got, tt.want)
		}
	}
}
