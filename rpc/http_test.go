package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bc1plainview/opnet-audit-kit/abi"
	"github.com/bc1plainview/opnet-audit-kit/core/events"
	"github.com/bc1plainview/opnet-audit-kit/core/state"
	"github.com/bc1plainview/opnet-audit-kit/native/market"
	"github.com/bc1plainview/opnet-audit-kit/storage"
)

type permissiveCollection struct {
	owners map[string]common.Address
}

func (c *permissiveCollection) key(collection common.Address, tokenID *uint256.Int) string {
	return fmt.Sprintf("%s/%s", collection.Hex(), tokenID.Dec())
}

func (c *permissiveCollection) OwnerOf(collection common.Address, tokenID *uint256.Int) (common.Address, error) {
	owner, ok := c.owners[c.key(collection, tokenID)]
	if !ok {
		return common.Address{}, fmt.Errorf("unknown token")
	}
	return owner, nil
}

func (c *permissiveCollection) IsApprovedForAll(common.Address, common.Address, common.Address) (bool, error) {
	return true, nil
}

func (c *permissiveCollection) TransferFrom(collection common.Address, from, to common.Address, tokenID *uint256.Int) error {
	c.owners[c.key(collection, tokenID)] = to
	return nil
}

func setupServer(t *testing.T) (*httptest.Server, *permissiveCollection) {
	t.Helper()
	engine := market.NewEngine()
	engine.SetState(state.NewManager(storage.NewMemDB()))
	nft := &permissiveCollection{owners: make(map[string]common.Address)}
	engine.SetCollectionClient(nft)
	engine.SetAdmin(common.HexToAddress("0xAD"))
	engine.SetOperator(common.HexToAddress("0x0F"))
	emitter := &events.MemoryEmitter{}
	engine.SetEmitter(emitter)

	server := NewServer(abi.NewDispatcher(engine), emitter, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, nft
}

func postCall(t *testing.T, ts *httptest.Server, from, data string) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"from": from, "data": data})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+"/call", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, payload
}

func listCalldata(collection common.Address, tokenID, price uint64) string {
	sel := abi.Selector(abi.SigListNFT)
	data := make([]byte, 0, 4+96)
	data = append(data, sel[:]...)
	var word [32]byte
	copy(word[12:], collection.Bytes())
	data = append(data, word[:]...)
	tok := uint256.NewInt(tokenID).Bytes32()
	data = append(data, tok[:]...)
	pr := uint256.NewInt(price).Bytes32()
	data = append(data, pr[:]...)
	return "0x" + common.Bytes2Hex(data)
}

func TestCallReturnsResultAndEvents(t *testing.T) {
	ts, nft := setupServer(t)
	seller := common.HexToAddress("0x01")
	collection := common.HexToAddress("0xC0")
	nft.owners[nft.key(collection, uint256.NewInt(7))] = seller

	resp, payload := postCall(t, ts, seller.Hex(), listCalldata(collection, 7, 1000))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %v", resp.StatusCode, payload)
	}
	result, _ := payload["result"].(string)
	expected := "0x" + common.Bytes2Hex(uint256.NewInt(1).PaddedBytes(32))
	if result != expected {
		t.Fatalf("expected result %s, got %s", expected, result)
	}
	eventsField, ok := payload["events"].([]any)
	if !ok || len(eventsField) != 1 {
		t.Fatalf("expected one event, got %v", payload["events"])
	}
	first, _ := eventsField[0].(map[string]any)
	if first["type"] != market.EventTypeListingCreated {
		t.Fatalf("unexpected event type %v", first["type"])
	}
}

func TestCallMapsErrorTaxonomyToStatusCodes(t *testing.T) {
	ts, _ := setupServer(t)
	caller := common.HexToAddress("0x01").Hex()

	sel := abi.Selector(abi.SigGetListing)
	missing := uint256.NewInt(9).Bytes32()
	data := "0x" + common.Bytes2Hex(append(sel[:], missing[:]...))
	resp, _ := postCall(t, ts, caller, data)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("NotFound must map to 404, got %d", resp.StatusCode)
	}

	feeSel := abi.Selector(abi.SigSetPlatformFee)
	bps := uint256.NewInt(100).Bytes32()
	data = "0x" + common.Bytes2Hex(append(feeSel[:], bps[:]...))
	resp, _ = postCall(t, ts, caller, data)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Unauthorized must map to 403, got %d", resp.StatusCode)
	}

	resp, _ = postCall(t, ts, caller, "0xdeadbeef")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown selector must map to 400, got %d", resp.StatusCode)
	}
}

func TestCallRejectsBadEnvelope(t *testing.T) {
	ts, _ := setupServer(t)

	resp, _ := postCall(t, ts, "not-an-address", "0x00000000")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad caller must map to 400, got %d", resp.StatusCode)
	}
	resp, _ = postCall(t, ts, common.HexToAddress("0x01").Hex(), "zzzz")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad hex must map to 400, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := setupServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}
