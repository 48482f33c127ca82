package reasoner

import (
	"context"
	"log/slog"
)

// FallbackClient chains two reasoner providers: every request goes to
// the primary, and only a primary error triggers a single retry against
// the secondary. Both failing returns the secondary's error, since that
// was the last attempt.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *slog.Logger
}

// NewFallbackClient builds the chain. A nil fallback is allowed and
// degrades to a plain pass-through to the primary.
func NewFallbackClient(primary, fallback Client, logger *slog.Logger) *FallbackClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Complete runs the request through the primary, retrying once on the
// fallback provider when the primary errors.
func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary reasoner failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return Response{}, err
	}

	// Model identifiers are provider-specific; the fallback resolves
	// its own default.
	fallbackReq := req
	fallbackReq.Model = ""
	fallbackResp, fallbackErr := c.fallback.Complete(ctx, fallbackReq)
	if fallbackErr != nil {
		c.logger.Error("fallback reasoner also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Response{}, fallbackErr
	}

	c.logger.Info("fallback reasoner succeeded after primary failure")
	return fallbackResp, nil
}
