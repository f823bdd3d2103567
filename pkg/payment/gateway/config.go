package gateway

// Config represents the configuration for the payment gateway client
type Config struct {
	// BaseURL is where the buyer is redirected to pay; the authority is appended as the last path segment
	BaseURL string

	// MerchantID identifies this shop at the gateway
	MerchantID string

	// CallbackURL is where the gateway sends the buyer after payment
	CallbackURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	if c.MerchantID == "" {
		return ErrInvalidRequest
	}
	return nil
}
