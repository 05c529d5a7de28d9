package mobilemoney

import "errors"

// DarajaConfig contains configuration for the Daraja STK push API
type DarajaConfig struct {
	// ShortCode is the business shortcode collecting the funds
	ShortCode string
	// ConsumerKey is the OAuth consumer key
	ConsumerKey string
	// ConsumerSecret is the OAuth consumer secret
	ConsumerSecret string
	// Passkey is the Lipa Na M-Pesa online passkey used to derive the
	// per-request password
	Passkey string
	// CallbackURL is where the gateway posts the asynchronous result
	CallbackURL string
	// AllowedPhonePrefixes restricts which MSISDNs may receive a push.
	// Defaults to the Kenyan country code when empty.
	AllowedPhonePrefixes []string
	// IsSandbox indicates whether to use the sandbox environment
	IsSandbox bool
}

// Errors for configuration validation
var (
	ErrDarajaMissingShortCode      = errors.New("daraja: missing business shortcode")
	ErrDarajaMissingConsumerKey    = errors.New("daraja: missing consumer key")
	ErrDarajaMissingConsumerSecret = errors.New("daraja: missing consumer secret")
	ErrDarajaMissingPasskey        = errors.New("daraja: missing passkey")
	ErrDarajaMissingCallbackURL    = errors.New("daraja: missing callback URL")
)

// defaultPhonePrefixes is applied when the config lists none
var defaultPhonePrefixes = []string{"254"}

// Validate validates the configuration
func (c *DarajaConfig) Validate() error {
	if c.ShortCode == "" {
		return ErrDarajaMissingShortCode
	}
	if c.ConsumerKey == "" {
		return ErrDarajaMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrDarajaMissingConsumerSecret
	}
	if c.Passkey == "" {
		return ErrDarajaMissingPasskey
	}
	if c.CallbackURL == "" {
		return ErrDarajaMissingCallbackURL
	}
	return nil
}

// phonePrefixes returns the configured prefixes, falling back to the default
func (c *DarajaConfig) phonePrefixes() []string {
	if len(c.AllowedPhonePrefixes) == 0 {
		return defaultPhonePrefixes
	}
	return c.AllowedPhonePrefixes
}
