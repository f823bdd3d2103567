package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ikkim/campus-backend/pkg/logger"
)

// AuthorityLength is the length of a dash-less uuid hex string.
const AuthorityLength = 32

// Client builds payment sessions against the configured gateway.
// The gateway is a redirect stub: there is no server-to-server call and
// verification is driven by the buyer coming back with the authority.
type Client struct {
	config Config
}

// NewClient creates a new gateway client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{config: config}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// Ready opens a payment session for an already generated authority
func (c *Client) Ready(ctx context.Context, req ReadyRequest) (*ReadyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Authority) != AuthorityLength {
		return nil, ErrInvalidAuthority
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	paymentURL := fmt.Sprintf("%s/%s", c.config.BaseURL, url.PathEscape(req.Authority))

	logger.Debug("Payment session prepared", map[string]interface{}{
		"authority": req.Authority,
		"amount":    req.Amount.StringFixed(2),
		"user_id":   req.UserID,
		"merchant":  c.config.MerchantID,
	})

	return &ReadyResponse{
		Authority:  req.Authority,
		PaymentURL: paymentURL,
		Merchant:   c.config.MerchantID,
	}, nil
}
