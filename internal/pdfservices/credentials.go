package pdfservices

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenPath       = "/ims/token/v3"
	jwtExchangePath = "/ims/exchange/jwt"
)

var defaultScopes = []string{"openid", "AdobeID", "DCAPI"}

// Credentials produce the bearer tokens the client attaches to every call.
// Implementations are immutable once built.
type Credentials interface {
	ClientID() string
	Validate() error
	tokenSource(ctx context.Context, imsURL string, hc *http.Client) oauth2.TokenSource
}

// ServicePrincipalCredentials authenticate with the OAuth2 client credentials grant.
type ServicePrincipalCredentials struct {
	clientID     string
	clientSecret string
}

func NewServicePrincipalCredentials(clientID, clientSecret string) (*ServicePrincipalCredentials, error) {
	c := &ServicePrincipalCredentials{clientID: clientID, clientSecret: clientSecret}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ServicePrincipalCredentials) ClientID() string { return c.clientID }

func (c *ServicePrincipalCredentials) Validate() error {
	if strings.TrimSpace(c.clientID) == "" {
		return validationError("clientId", "client id is required")
	}
	if strings.TrimSpace(c.clientSecret) == "" {
		return validationError("clientSecret", "client secret is required")
	}
	return nil
}

func (c *ServicePrincipalCredentials) tokenSource(ctx context.Context, imsURL string, hc *http.Client) oauth2.TokenSource {
	cfg := clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     strings.TrimSuffix(imsURL, "/") + tokenPath,
		Scopes:       defaultScopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return cfg.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, hc))
}

// ServiceAccountCredentials are the older JWT-based credentials: a signed
// assertion is exchanged for an access token.
type ServiceAccountCredentials struct {
	clientID           string
	clientSecret       string
	technicalAccountID string
	organizationID     string
	privateKey         *rsa.PrivateKey
}

// ServiceAccountConfig holds the raw inputs of NewServiceAccountCredentials.
type ServiceAccountConfig struct {
	ClientID           string
	ClientSecret       string
	TechnicalAccountID string
	OrganizationID     string
	PrivateKeyPEM      []byte
}

func NewServiceAccountCredentials(cfg ServiceAccountConfig) (*ServiceAccountCredentials, error) {
	c := &ServiceAccountCredentials{
		clientID:           cfg.ClientID,
		clientSecret:       cfg.ClientSecret,
		technicalAccountID: cfg.TechnicalAccountID,
		organizationID:     cfg.OrganizationID,
	}
	if len(cfg.PrivateKeyPEM) == 0 {
		return nil, validationError("privateKey", "private key is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKeyPEM)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: "validate", Field: "privateKey", Err: err}
	}
	c.privateKey = key
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ServiceAccountCredentials) ClientID() string { return c.clientID }

func (c *ServiceAccountCredentials) Validate() error {
	switch {
	case c.clientID == "":
		return validationError("clientId", "client id is required")
	case c.clientSecret == "":
		return validationError("clientSecret", "client secret is required")
	case c.technicalAccountID == "":
		return validationError("technicalAccountId", "technical account id is required")
	case c.organizationID == "":
		return validationError("organizationId", "organization id is required")
	case c.privateKey == nil:
		return validationError("privateKey", "private key is required")
	}
	return nil
}

func (c *ServiceAccountCredentials) tokenSource(ctx context.Context, imsURL string, hc *http.Client) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &jwtTokenSource{
		ctx:    ctx,
		creds:  c,
		imsURL: strings.TrimSuffix(imsURL, "/"),
		client: hc,
		now:    time.Now,
	})
}

type jwtTokenSource struct {
	ctx    context.Context
	creds  *ServiceAccountCredentials
	imsURL string
	client *http.Client
	now    func() time.Time
}

type jwtExchangeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// ExpiresIn is in milliseconds on the exchange endpoint.
	ExpiresIn int64 `json:"expires_in"`
}

func (s *jwtTokenSource) assertion() (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"exp": now.Add(24 * time.Hour).Unix(),
		"iss": s.creds.organizationID,
		"sub": s.creds.technicalAccountID,
		"aud": s.imsURL + "/c/" + s.creds.clientID,
		s.imsURL + "/s/ent_documentcloud_sdk": true,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.creds.privateKey)
}

func (s *jwtTokenSource) Token() (*oauth2.Token, error) {
	signed, err := s.assertion()
	if err != nil {
		return nil, &Error{Kind: KindSDK, Op: "authenticate", Message: "failed to sign JWT assertion", Err: err}
	}
	form := url.Values{
		"client_id":     {s.creds.clientID},
		"client_secret": {s.creds.clientSecret},
		"jwt_token":     {signed},
	}
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.imsURL+jwtExchangePath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, sdkError("authenticate", "failed to build exchange request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transportError("authenticate", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &Error{Kind: KindAuth, Op: "authenticate", StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	var out jwtExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, transportError("authenticate", fmt.Errorf("failed to decode exchange response: %w", err))
	}
	if out.AccessToken == "" {
		return nil, &Error{Kind: KindAuth, Op: "authenticate", Message: "exchange response carried no access token"}
	}
	return &oauth2.Token{
		AccessToken: out.AccessToken,
		TokenType:   "Bearer",
		Expiry:      s.now().Add(time.Duration(out.ExpiresIn) * time.Millisecond),
	}, nil
}

// credentialsFile is the on-disk JSON layout of pdfservices-api-credentials.json.
type credentialsFile struct {
	ClientCredentials struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"client_credentials"`
	ServiceAccountCredentials *struct {
		OrganizationID string `json:"organization_id"`
		AccountID      string `json:"account_id"`
		PrivateKeyFile string `json:"private_key_file"`
	} `json:"service_account_credentials"`
}

// LoadCredentialsFile reads a credentials JSON file. Files with a
// service_account_credentials block yield ServiceAccountCredentials (the
// private key path is resolved relative to the file); all others yield
// ServicePrincipalCredentials.
func LoadCredentialsFile(path string) (Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindSDK, Op: "load credentials", Err: err}
	}
	var f credentialsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, &Error{Kind: KindValidation, Op: "load credentials", Message: "malformed credentials file", Err: err}
	}
	if f.ServiceAccountCredentials == nil {
		creds, err := NewServicePrincipalCredentials(f.ClientCredentials.ClientID, f.ClientCredentials.ClientSecret)
		if err != nil {
			return nil, err
		}
		return creds, nil
	}
	sa := f.ServiceAccountCredentials
	keyPath := sa.PrivateKeyFile
	if keyPath == "" {
		return nil, validationError("privateKeyFile", "private key file is required")
	}
	if !filepath.IsAbs(keyPath) {
		keyPath = filepath.Join(filepath.Dir(path), keyPath)
	}
	pem, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &Error{Kind: KindSDK, Op: "load credentials", Message: "failed to read private key", Err: err}
	}
	creds, err := NewServiceAccountCredentials(ServiceAccountConfig{
		ClientID:           f.ClientCredentials.ClientID,
		ClientSecret:       f.ClientCredentials.ClientSecret,
		TechnicalAccountID: sa.AccountID,
		OrganizationID:     sa.OrganizationID,
		PrivateKeyPEM:      pem,
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}
