package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type signingFixture struct {
	key      *rsa.PrivateKey
	certsRT  roundTripFunc
	fetched  *int
	certsURL string
}

func newSigningFixture(t *testing.T, kid string) *signingFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	body, err := json.Marshal(map[string]string{kid: string(certPEM)})
	require.NoError(t, err)

	fetched := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		fetched++
		header := http.Header{}
		header.Set("Cache-Control", "public, max-age=3600")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(string(body))),
			Header:     header,
		}, nil
	})

	return &signingFixture{key: key, certsRT: rt, fetched: &fetched, certsURL: "http://certs.test/x509"}
}

func (f *signingFixture) newClient(t *testing.T, projectID string) *Client {
	t.Helper()
	client, err := NewClient(
		config.IdentityConfig{ProjectID: projectID},
		WithCertsURL(f.certsURL),
		WithHTTPClient(&http.Client{Transport: f.certsRT}),
	)
	require.NoError(t, err)
	return client
}

func (f *signingFixture) signToken(t *testing.T, kid string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func baseClaims(projectID string) idTokenClaims {
	now := time.Now()
	return idTokenClaims{
		PhoneNumber: "+919876543210",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerPrefix + projectID,
			Audience:  jwt.ClaimStrings{projectID},
			Subject:   "firebase-uid-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestVerifyIDToken(t *testing.T) {
	fixture := newSigningFixture(t, "kid-1")
	client := fixture.newClient(t, "freshoils-test")

	signed := fixture.signToken(t, "kid-1", baseClaims("freshoils-test"))

	verified, err := client.VerifyIDToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", verified.UID)
	assert.Equal(t, "+919876543210", verified.Phone)
}

func TestVerifyIDTokenCachesCertificates(t *testing.T) {
	fixture := newSigningFixture(t, "kid-1")
	client := fixture.newClient(t, "freshoils-test")

	signed := fixture.signToken(t, "kid-1", baseClaims("freshoils-test"))

	_, err := client.VerifyIDToken(context.Background(), signed)
	require.NoError(t, err)
	_, err = client.VerifyIDToken(context.Background(), signed)
	require.NoError(t, err)

	assert.Equal(t, 1, *fixture.fetched)
}

func TestVerifyIDTokenRejectsWrongAudience(t *testing.T) {
	fixture := newSigningFixture(t, "kid-1")
	client := fixture.newClient(t, "freshoils-test")

	claims := baseClaims("freshoils-test")
	claims.Audience = jwt.ClaimStrings{"other-project"}
	signed := fixture.signToken(t, "kid-1", claims)

	_, err := client.VerifyIDToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)
}

func TestVerifyIDTokenRejectsWrongIssuer(t *testing.T) {
	fixture := newSigningFixture(t, "kid-1")
	client := fixture.newClient(t, "freshoils-test")

	claims := baseClaims("freshoils-test")
	claims.Issuer = issuerPrefix + "other-project"
	signed := fixture.signToken(t, "kid-1", claims)

	_, err := client.VerifyIDToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)
}

func TestVerifyIDTokenRejectsExpired(t *testing.T) {
	fixture := newSigningFixture(t, "kid-1")
	client := fixture.newClient(t, "freshoils-test")

	claims := baseClaims("freshoils-test")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	signed := fixture.signToken(t, "kid-1", claims)

	_, err := client.VerifyIDToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)
}

func TestVerifyIDTokenRejectsUnknownKid(t *testing.T) {
	fixture := newSigningFixture(t, "kid-1")
	client := fixture.newClient(t, "freshoils-test")

	signed := fixture.signToken(t, "kid-other", baseClaims("freshoils-test"))

	_, err := client.VerifyIDToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)
}

func TestVerifyIDTokenRejectsEmpty(t *testing.T) {
	fixture := newSigningFixture(t, "kid-1")
	client := fixture.newClient(t, "freshoils-test")

	_, err := client.VerifyIDToken(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)
}

func TestNewClientRequiresProjectID(t *testing.T) {
	_, err := NewClient(config.IdentityConfig{})
	assert.Error(t, err)
}
