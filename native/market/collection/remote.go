package collection

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RemoteCaller forwards contract calls to the host execution environment over
// HTTP. The host endpoint accepts {"to", "data"} and answers with the raw
// return data of the call.
type RemoteCaller struct {
	endpoint string
	client   *http.Client
}

// NewRemoteCaller creates a caller against the host endpoint.
func NewRemoteCaller(endpoint string) *RemoteCaller {
	return &RemoteCaller{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type remoteRequest struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type remoteResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Call delivers one synchronous contract call and returns its response data.
func (r *RemoteCaller) Call(contract common.Address, data []byte) ([]byte, error) {
	body, err := json.Marshal(remoteRequest{
		To:   contract.Hex(),
		Data: "0x" + hex.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Post(r.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("host response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if payload.Error != "" {
			return nil, fmt.Errorf("host call failed: %s", payload.Error)
		}
		return nil, fmt.Errorf("host call failed with status %d", resp.StatusCode)
	}
	trimmed := strings.TrimPrefix(strings.TrimSpace(payload.Result), "0x")
	if trimmed == "" {
		return nil, nil
	}
	out, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("host response: %w", err)
	}
	return out, nil
}
