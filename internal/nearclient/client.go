// Package nearclient is a minimal JSON-RPC client for read-only NEAR
// view-calls. The projector uses it opportunistically on mint to backfill
// token metadata and royalty that the transfer event itself does not carry.
package nearclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"NFTProjector/internal/model"

	"github.com/rs/zerolog"
)

// Royalty view-calls ask for a payout over this balance so the returned
// amounts read directly as basis points.
const (
	payoutBalance      = "10000"
	payoutMaxLenPayout = 10
)

type Client struct {
	rpcURL string
	client *http.Client
	log    zerolog.Logger
}

func New(rpcURL string, log zerolog.Logger) *Client {
	return &Client{
		rpcURL: rpcURL,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

// TokenView is the contract's nft_token view result.
type TokenView struct {
	TokenID  string         `json:"token_id"`
	OwnerID  string         `json:"owner_id"`
	Metadata model.Metadata `json:"metadata"`
}

// NFTToken returns the on-chain view of one token.
func (c *Client) NFTToken(ctx context.Context, contractID, tokenID string) (*TokenView, error) {
	args := map[string]string{"token_id": tokenID}

	var view TokenView
	if err := c.viewFunction(ctx, contractID, "nft_token", args, &view); err != nil {
		return nil, fmt.Errorf("nft_token %s/%s: %w", contractID, tokenID, err)
	}
	return &view, nil
}

// NFTPayout returns the royalty split for one token as basis points.
func (c *Client) NFTPayout(ctx context.Context, contractID, tokenID string) (model.Royalty, error) {
	args := map[string]interface{}{
		"token_id":       tokenID,
		"balance":        payoutBalance,
		"max_len_payout": payoutMaxLenPayout,
	}

	var result struct {
		Payout map[string]string `json:"payout"`
	}
	if err := c.viewFunction(ctx, contractID, "nft_payout", args, &result); err != nil {
		return nil, fmt.Errorf("nft_payout %s/%s: %w", contractID, tokenID, err)
	}

	royalty := make(model.Royalty, len(result.Payout))
	for account, amount := range result.Payout {
		n, err := strconv.ParseInt(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("nft_payout %s/%s: amount %q: %w", contractID, tokenID, amount, err)
		}
		royalty[account] = n
	}
	return royalty, nil
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// callResult carries the view-call output. The node returns the function
// result as an array of byte values holding JSON.
type callResult struct {
	Result []byte `json:"-"`
	Error  string `json:"error"`
}

func (r *callResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		Result []int  `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Error = raw.Error
	r.Result = make([]byte, len(raw.Result))
	for i, v := range raw.Result {
		r.Result[i] = byte(v)
	}
	return nil
}

func (c *Client) viewFunction(ctx context.Context, accountID, method string, args interface{}, out interface{}) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "dontcare",
		Method:  "query",
		Params: map[string]interface{}{
			"request_type": "call_function",
			"finality":     "final",
			"account_id":   accountID,
			"method_name":  method,
			"args_base64":  base64.StdEncoding.EncodeToString(argsJSON),
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc status %d: %s", resp.StatusCode, body)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var call callResult
	if err := json.Unmarshal(rpcResp.Result, &call); err != nil {
		return fmt.Errorf("decode call result: %w", err)
	}
	if call.Error != "" {
		return fmt.Errorf("view call failed: %s", call.Error)
	}

	if err := json.Unmarshal(call.Result, out); err != nil {
		return fmt.Errorf("decode view result: %w", err)
	}
	return nil
}
