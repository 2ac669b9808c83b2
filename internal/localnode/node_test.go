package localnode

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rooch-network/rooch-go/config"
	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/pkg/types"
)

func post(t *testing.T, url, method string, params interface{}) rpc.Response {
	t.Helper()
	body, _ := json.Marshal(rpc.Request{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out rpc.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestNode_ServesOverHTTP(t *testing.T) {
	n, err := NewTestNode("")
	if err != nil {
		t.Fatalf("NewTestNode: %v", err)
	}
	t.Cleanup(func() { n.Stop() })

	resp := post(t, n.URL(), rpc.MethodDiscover, nil)
	if resp.Error != nil {
		t.Fatalf("discover: %v", resp.Error)
	}
	info := resp.Result.(map[string]interface{})["info"].(map[string]interface{})
	if info["version"] != DefaultVersion {
		t.Errorf("version = %v", info["version"])
	}

	resp = post(t, n.URL(), rpc.MethodGetStates, []interface{}{"/object/0x3,0x100", rpc.StateOptions{Decode: true}})
	if resp.Error != nil {
		t.Fatalf("getStates: %v", resp.Error)
	}
	states := resp.Result.([]interface{})
	if len(states) != 2 || states[0] == nil || states[1] != nil {
		t.Errorf("states = %v", states)
	}
}

func TestOpen_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NodeConfig{Addr: "127.0.0.1", Port: 0}
	acct := types.MustParseAddress("0x77")

	n, err := Open(cfg, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := n.Backend().SetSequenceNumber(acct, 9); err != nil {
		t.Fatal(err)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	n, err = Open(cfg, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer n.Stop()
	seq, err := n.Backend().Store().SequenceNumber(acct)
	if err != nil || seq != 9 {
		t.Errorf("sequence after restart = %d, %v; want 9", seq, err)
	}
}

func TestOpen_InMemory(t *testing.T) {
	n, err := Open(config.NodeConfig{Addr: "127.0.0.1", InMemory: true}, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer n.Stop()
	resp := post(t, n.URL(), rpc.MethodGetChainID, nil)
	if resp.Result != "4" {
		t.Errorf("chain id = %v", resp.Result)
	}
}
