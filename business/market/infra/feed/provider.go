package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/crosspool/poolarb/business/market/domain"
	"github.com/crosspool/poolarb/internal/apperror"
	"github.com/crosspool/poolarb/internal/circuitbreaker"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/httpclient"
	"github.com/crosspool/poolarb/internal/logger"
	"github.com/crosspool/poolarb/internal/wsconn"
)

// Provider implements app.SnapshotSource over a websocket feed with an HTTP
// pull fallback. Incoming pool updates are folded into an in-memory set;
// GetSnapshots returns the latest observation per pool.
type Provider struct {
	cfg    config.MarketConfig
	ws     *wsconn.Client
	rest   *httpclient.Client
	restCB *circuitbreaker.CircuitBreaker[[]domain.PoolSnapshot]
	logger logger.LoggerInterface

	mu    sync.RWMutex
	pools map[string]domain.PoolSnapshot
}

// NewProvider creates a feed provider from market config.
func NewProvider(cfg config.MarketConfig, log logger.LoggerInterface) *Provider {
	p := &Provider{
		cfg:    cfg,
		logger: log,
		pools:  make(map[string]domain.PoolSnapshot),
	}

	if cfg.FeedHTTPURL != "" {
		p.rest = httpclient.New(cfg.FeedHTTPURL, httpclient.WithTimeout(cfg.StaleTimeout))
	}

	restCfg := circuitbreaker.DefaultConfig("feed-rest")
	restCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	p.restCB = circuitbreaker.New[[]domain.PoolSnapshot](restCfg)

	return p
}

// Start connects the websocket feed and begins folding updates.
func (p *Provider) Start(ctx context.Context) error {
	if p.cfg.FeedWebSocketURL == "" {
		if p.rest == nil {
			return apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("no feed URL configured"))
		}
		p.logger.Info(ctx, "no websocket feed configured, using HTTP pull only")
		return nil
	}

	wsCfg := wsconn.DefaultConfig(p.cfg.FeedWebSocketURL)
	wsCfg.InitialBackoff = p.cfg.InitialBackoff
	wsCfg.MaxBackoff = p.cfg.MaxBackoff
	p.ws = wsconn.New(wsCfg)
	p.ws.OnStateChange = func(from, to wsconn.State) {
		p.logger.Info(context.Background(), "feed connection state change",
			"from", string(from), "to", string(to))
	}

	if err := p.ws.Connect(ctx); err != nil {
		return err
	}

	go p.consume(ctx)
	return nil
}

func (p *Provider) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-p.ws.Messages():
			if !ok {
				return
			}
			p.handleMessage(ctx, raw)
		}
	}
}

func (p *Provider) handleMessage(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		p.logger.Warn(ctx, "undecodable feed message", "error", err)
		return
	}

	switch env.Type {
	case msgTypePoolUpdate:
		var update poolUpdate
		if err := json.Unmarshal(env.Data, &update); err != nil {
			p.logger.Warn(ctx, "undecodable pool update", "error", err)
			return
		}
		snap := update.toSnapshot()
		p.mu.Lock()
		p.pools[snap.PoolID] = snap
		p.mu.Unlock()

	case msgTypeHeartbeat:
		// keepalive only

	default:
		p.logger.Debug(ctx, "ignoring feed message", "type", env.Type)
	}
}

// GetSnapshots returns the latest snapshot of every known pool. When the
// websocket is down and a REST fallback is configured, the full set is
// pulled through the circuit breaker instead.
func (p *Provider) GetSnapshots(ctx context.Context) ([]domain.PoolSnapshot, error) {
	if p.ws == nil || p.ws.State() != wsconn.StateConnected {
		if p.rest != nil {
			return p.restCB.Execute(func() ([]domain.PoolSnapshot, error) {
				return p.fetchREST(ctx)
			})
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.PoolSnapshot, 0, len(p.pools))
	for _, snap := range p.pools {
		out = append(out, snap)
	}
	return out, nil
}

func (p *Provider) fetchREST(ctx context.Context) ([]domain.PoolSnapshot, error) {
	var resp snapshotResponse
	if err := p.rest.GetJSON(ctx, "/pools", nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.PoolSnapshot, 0, len(resp.Pools))
	p.mu.Lock()
	for _, update := range resp.Pools {
		snap := update.toSnapshot()
		p.pools[snap.PoolID] = snap
		out = append(out, snap)
	}
	p.mu.Unlock()
	return out, nil
}

// Connected reports whether the feed can currently serve snapshots.
func (p *Provider) Connected() bool {
	if p.ws != nil && p.ws.State() == wsconn.StateConnected {
		return true
	}
	return p.rest != nil
}

// Close shuts the feed down.
func (p *Provider) Close() error {
	if p.ws != nil {
		return p.ws.Close()
	}
	return nil
}
