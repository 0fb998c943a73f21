package client_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fzdarsky/ccclogin/internal/cli/client"
	cliTLS "github.com/fzdarsky/ccclogin/internal/cli/tls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Post(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/clients/", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		assert.Equal(t, "ccclogin/test", r.Header.Get("User-Agent"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		_, _ = w.Write([]byte("echo:" + string(body)))
	}))
	defer srv.Close()

	c := client.NewClientWithHTTPClient(srv.Client(), "ccclogin/test")
	resp, err := c.Post(context.Background(), srv.URL+"/clients/", []byte("(CCCclientRequest)"))
	require.NoError(t, err)
	assert.Equal(t, "echo:(CCCclientRequest)", string(resp))
}

func TestClient_Post_StatusError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	c := client.NewClientWithHTTPClient(srv.Client(), "")
	_, err := c.Post(context.Background(), srv.URL+"/clients/", nil)
	require.Error(t, err)

	var statusErr *client.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.HTTPStatus())
	assert.Len(t, statusErr.Body, 200, "body is truncated")
	assert.Contains(t, err.Error(), "503")
}

func TestClient_Post_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 1<<20+1))
	}))
	defer srv.Close()

	c := client.NewClientWithHTTPClient(srv.Client(), "")
	_, err := c.Post(context.Background(), srv.URL+"/clients/", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestClient_Post_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := client.NewClientWithHTTPClient(srv.Client(), "")
	_, err := c.Post(ctx, srv.URL+"/clients/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Post_ConnectionRefused(t *testing.T) {
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	url := srv.URL + "/clients/"
	httpClient := srv.Client()
	srv.Close()

	c := client.NewClientWithHTTPClient(httpClient, "")
	_, err := c.Post(context.Background(), url, nil)
	require.Error(t, err)

	var statusErr *client.StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestTOFU_RejectedCertificateSendsNothing(t *testing.T) {
	srv, hits := newCountingServer(t)
	host := srv.Listener.Addr().String()
	store := openStore(t)

	var prompted atomic.Int32
	c, err := client.NewClient(client.Options{
		Host:         host,
		KnownServers: store,
		Prompt: func(h string, cert *x509.Certificate) bool {
			prompted.Add(1)
			assert.Equal(t, host, h)
			assert.NotNil(t, cert)
			return false
		},
	})
	require.NoError(t, err)

	_, err = c.Post(context.Background(), srv.URL+"/clients/", []byte("secret"))
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrCertificateRejected)
	assert.Equal(t, int32(1), prompted.Load())
	assert.Equal(t, int32(0), hits.Load(), "no request may reach an untrusted server")
	assert.Nil(t, store.Get(host))
}

func TestTOFU_NilPromptRejects(t *testing.T) {
	srv, hits := newCountingServer(t)

	c, err := client.NewClient(client.Options{
		Host:         srv.Listener.Addr().String(),
		KnownServers: openStore(t),
	})
	require.NoError(t, err)

	_, err = c.Post(context.Background(), srv.URL+"/clients/", nil)
	assert.ErrorIs(t, err, client.ErrCertificateRejected)
	assert.Equal(t, int32(0), hits.Load())
}

func TestTOFU_AcceptedCertificateIsPinned(t *testing.T) {
	srv, hits := newCountingServer(t)
	host := srv.Listener.Addr().String()
	store := openStore(t)

	var prompted atomic.Int32
	prompt := func(string, *x509.Certificate) bool {
		prompted.Add(1)
		return true
	}

	c, err := client.NewClient(client.Options{Host: host, KnownServers: store, Prompt: prompt})
	require.NoError(t, err)

	resp, err := c.Post(context.Background(), srv.URL+"/clients/", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp))
	assert.Equal(t, int32(1), hits.Load())

	entry := store.Get(host)
	require.NotNil(t, entry)
	assert.Equal(t, cliTLS.ComputeFingerprint(srv.Certificate()), entry.Fingerprint)

	// A new client against the same store trusts the pinned certificate.
	c2, err := client.NewClient(client.Options{Host: host, KnownServers: store, Prompt: prompt})
	require.NoError(t, err)
	_, err = c2.Post(context.Background(), srv.URL+"/clients/", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), prompted.Load(), "known certificate is not prompted again")
}

func TestTOFU_FingerprintMismatch(t *testing.T) {
	srv, hits := newCountingServer(t)
	host := srv.Listener.Addr().String()
	store := openStore(t)
	require.NoError(t, store.Add(host, createTestCertificate(t, "127.0.0.1")))

	c, err := client.NewClient(client.Options{
		Host:         host,
		KnownServers: store,
		Prompt: func(string, *x509.Certificate) bool {
			t.Error("a changed certificate must not be prompted")
			return true
		},
	})
	require.NoError(t, err)

	_, err = c.Post(context.Background(), srv.URL+"/clients/", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint mismatch")
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_CACert(t *testing.T) {
	srv, _ := newCountingServer(t)

	caPath := filepath.Join(t.TempDir(), "ca.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	require.NoError(t, os.WriteFile(caPath, pemBytes, 0o600))

	c, err := client.NewClient(client.Options{
		Host:   srv.Listener.Addr().String(),
		CACert: caPath,
	})
	require.NoError(t, err)

	resp, err := c.Post(context.Background(), srv.URL+"/clients/", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp))
}

func TestClient_CACert_Invalid(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))

	_, err := client.NewClient(client.Options{CACert: garbage})
	assert.Error(t, err)

	_, err = client.NewClient(client.Options{CACert: filepath.Join(dir, "missing.pem")})
	assert.Error(t, err)
}

func TestClient_InsecureSkipVerify(t *testing.T) {
	srv, hits := newCountingServer(t)

	c, err := client.NewClient(client.Options{
		Host:               srv.Listener.Addr().String(),
		InsecureSkipVerify: true,
	})
	require.NoError(t, err)

	_, err = c.Post(context.Background(), srv.URL+"/clients/", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func newCountingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func openStore(t *testing.T) *cliTLS.CertificateStore {
	t.Helper()

	store, err := cliTLS.OpenCertificateStore(filepath.Join(t.TempDir(), "known_servers.yaml"))
	require.NoError(t, err)
	return store
}

func createTestCertificate(t *testing.T, commonName string) *x509.Certificate {
	t.Helper()

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(derBytes)
	require.NoError(t, err)
	return cert
}
