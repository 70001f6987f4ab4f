package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/freshoils/freshoils-backend/pkg/config"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultCertsURL             = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	issuerPrefix                = "https://securetoken.google.com/"
	minCertRefreshInterval      = time.Minute
	responseBodyReadLimit int64 = 1 << 20
)

var (
	errProjectIDRequired = errors.New("identity project id is required")

	// ErrInvalidIdentityToken covers expired, malformed, or mis-issued tokens.
	ErrInvalidIdentityToken = errors.New("invalid identity token")
)

// Token holds the verified identity claims we care about.
type Token struct {
	UID   string
	Phone string
}

// Verifier checks a client-supplied identity token and returns its claims.
type Verifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
}

// Client verifies Firebase-issued identity tokens against Google's published
// securetoken signing certificates.
type Client struct {
	httpClient *http.Client
	certsURL   string
	projectID  string

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCertsURL overrides the signing certificate endpoint.
func WithCertsURL(certsURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(certsURL)
		if trimmed != "" {
			c.certsURL = trimmed
		}
	}
}

// NewClient builds the identity verifier for the configured project.
func NewClient(cfg config.IdentityConfig, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, errProjectIDRequired
	}

	client := &Client{
		projectID:  strings.TrimSpace(cfg.ProjectID),
		certsURL:   defaultCertsURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.certsURL == "" {
		client.certsURL = defaultCertsURL
	}

	return client, nil
}

type idTokenClaims struct {
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// VerifyIDToken validates the signature, audience, issuer, and lifetime of
// the provided token and returns its subject and phone number.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity client not configured")
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidIdentityToken
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token missing kid header")
		}
		return c.signingKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(c.projectID),
		jwt.WithIssuer(issuerPrefix+c.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentityToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidIdentityToken
	}

	return &Token{UID: claims.Subject, Phone: claims.PhoneNumber}, nil
}

func (c *Client) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[kid]; ok && time.Now().Before(c.expiresAt) {
		return key, nil
	}

	keys, maxAge, err := c.fetchCerts(ctx)
	if err != nil {
		return nil, err
	}
	c.keys = keys
	c.expiresAt = time.Now().Add(maxAge)

	key, ok := c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing certificate for kid %q", kid)
	}
	return key, nil
}

func (c *Client) fetchCerts(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.certsURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build certs request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch signing certificates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetch signing certificates: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, 0, fmt.Errorf("read certs response: %w", err)
	}

	var pemByKid map[string]string
	if err := json.Unmarshal(raw, &pemByKid); err != nil {
		return nil, 0, fmt.Errorf("decode certs response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(pemByKid))
	for kid, certPEM := range pemByKid {
		key, err := parseCertificateKey(certPEM)
		if err != nil {
			return nil, 0, fmt.Errorf("parse certificate %q: %w", kid, err)
		}
		keys[kid] = key
	}
	if len(keys) == 0 {
		return nil, 0, fmt.Errorf("certs response contained no certificates")
	}

	return keys, certsMaxAge(resp.Header), nil
}

func parseCertificateKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate does not carry an RSA key")
	}
	return key, nil
}

func certsMaxAge(header http.Header) time.Duration {
	for _, directive := range strings.Split(header.Get("Cache-Control"), ",") {
		directive = strings.TrimSpace(directive)
		if value, ok := strings.CutPrefix(directive, "max-age="); ok {
			if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return minCertRefreshInterval
}
