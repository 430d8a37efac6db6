package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// JSONRPC implements the WalletProvider capability over a JSON-RPC 2.0 HTTP
// endpoint, for deployments where the wallet lives in a signer daemon instead
// of an in-process injection. Account-change notifications are synthesized by
// polling eth_accounts, since plain HTTP has no event channel.
type JSONRPC struct {
	log      *slog.Logger
	endpoint string
	client   *http.Client
	interval time.Duration

	mu       sync.Mutex
	nextID   int
	handlers map[int]func([]string)
	last     []string
	stop     chan struct{}
}

func NewJSONRPC(log *slog.Logger, endpoint string, timeout, pollInterval time.Duration) *JSONRPC {
	return &JSONRPC{
		log:      log,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		interval: pollInterval,
		handlers: make(map[int]func([]string)),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result []string  `json:"result"`
	Error  *RPCError `json:"error"`
}

func (p *JSONRPC) Request(ctx context.Context, method string) ([]string, error) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: []any{}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed rpcResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if parsed.Error != nil {
		return nil, parsed.Error
	}
	return parsed.Result, nil
}

// OnAccountsChanged starts the poll loop on first use and stops it once the
// last listener is removed. Removing a listener after Close is a no-op.
func (p *JSONRPC) OnAccountsChanged(fn func(accounts []string)) (remove func()) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.handlers[id] = fn
	if p.stop == nil {
		p.stop = make(chan struct{})
		go p.poll(p.stop)
	}
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
		if len(p.handlers) == 0 && p.stop != nil {
			close(p.stop)
			p.stop = nil
		}
	}
}

func (p *JSONRPC) poll(stop chan struct{}) {
	const op = "provider.JSONRPC.poll"
	log := p.log.With("op", op)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.interval)
		accounts, err := p.Request(ctx, MethodAccounts)
		cancel()
		if err != nil {
			log.Debug("account poll failed", "errMsg", err.Error())
			continue
		}
		p.dispatch(accounts)
	}
}

func (p *JSONRPC) dispatch(accounts []string) {
	p.mu.Lock()
	if equalAccounts(p.last, accounts) {
		p.mu.Unlock()
		return
	}
	p.last = accounts
	handlers := make([]func([]string), 0, len(p.handlers))
	for _, fn := range p.handlers {
		handlers = append(handlers, fn)
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(accounts)
	}
}

func equalAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
