// Package metadata resolves content-addressed metadata references through an
// IPFS gateway and shallow-merges the fetched document over on-chain fields.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"NFTProjector/internal/model"
	"NFTProjector/internal/observability"
	"NFTProjector/internal/retry"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
)

var (
	// ErrBadReference marks a malformed content identifier. A data error,
	// never retried.
	ErrBadReference = errors.New("metadata: bad reference")

	// ErrUnresolved marks retry exhaustion against the gateway. Aborts the
	// containing batch.
	ErrUnresolved = errors.New("metadata: unresolved")
)

const DefaultGateway = "https://ipfs.fleek.co"

type Resolver struct {
	gateway string
	client  *http.Client
	policy  retry.Policy
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewResolver(gateway string, policy retry.Policy, log zerolog.Logger) *Resolver {
	if gateway == "" {
		gateway = DefaultGateway
	}
	return &Resolver{
		gateway: gateway,
		client:  &http.Client{Timeout: 30 * time.Second},
		policy:  policy,
		log:     log,
	}
}

// WithMetrics attaches resolver counters. Nil-safe; returns the receiver.
func (r *Resolver) WithMetrics(m *observability.Metrics) *Resolver {
	r.metrics = m
	return r
}

// Resolve returns meta unchanged when it carries no reference. Otherwise it
// canonicalizes the reference, fetches the referenced JSON and merges it on
// top of meta (fetched fields win on collision).
func (r *Resolver) Resolve(ctx context.Context, meta model.Metadata) (model.Metadata, error) {
	ref := meta.Reference()
	if ref == "" {
		return meta, nil
	}

	c, err := cid.Decode(ref)
	if err != nil {
		r.countFailure("bad_reference")
		return nil, fmt.Errorf("%w: %q: %v", ErrBadReference, ref, err)
	}

	fetched, err := r.fetch(ctx, c.String())
	if err != nil {
		r.countFailure("unresolved")
		return nil, fmt.Errorf("%w: %s: %v", ErrUnresolved, ref, err)
	}

	if r.metrics != nil {
		r.metrics.ResolverFetches.Inc()
	}
	return meta.Merge(fetched), nil
}

func (r *Resolver) countFailure(reason string) {
	if r.metrics != nil {
		r.metrics.ResolverFailures.WithLabelValues(reason).Inc()
	}
}

func (r *Resolver) fetch(ctx context.Context, hash string) (model.Metadata, error) {
	url := fmt.Sprintf("%s/ipfs/%s", r.gateway, hash)

	var fetched model.Metadata
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Terminal(err)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			r.log.Warn().Str("cid", hash).Err(err).Msg("gateway fetch failed, retrying")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			r.log.Warn().Str("cid", hash).Int("status", resp.StatusCode).Msg("gateway fetch failed, retrying")
			return fmt.Errorf("gateway status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &fetched); err != nil {
			// The document itself is broken, not the transport.
			return retry.Terminal(fmt.Errorf("gateway body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fetched, nil
}
