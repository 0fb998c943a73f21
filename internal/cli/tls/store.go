package tls

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fzdarsky/ccclogin/internal/cli/config"
	"gopkg.in/yaml.v3"
)

const knownServersFileName = "known_servers.yaml"

// CertificateEntry records the certificate accepted for a server.
type CertificateEntry struct {
	Host        string    `yaml:"host"`
	Fingerprint string    `yaml:"fingerprint"`
	Subject     string    `yaml:"subject,omitempty"`
	AcceptedAt  time.Time `yaml:"accepted_at"`
}

// CertificateStore manages known server certificate fingerprints.
type CertificateStore struct {
	filePath string
	mu       sync.Mutex
	certs    map[string]CertificateEntry // keyed by host
}

type knownServersFile struct {
	Servers []CertificateEntry `yaml:"servers"`
}

// NewCertificateStore opens the store in the user config directory.
func NewCertificateStore() (*CertificateStore, error) {
	configDir, err := config.UserConfigDir()
	if err != nil {
		return nil, err
	}

	if err := config.EnsureDir(configDir); err != nil {
		return nil, err
	}

	return OpenCertificateStore(filepath.Join(configDir, knownServersFileName))
}

// OpenCertificateStore opens the store backed by filePath. A missing file is
// an empty store.
func OpenCertificateStore(filePath string) (*CertificateStore, error) {
	store := &CertificateStore{
		filePath: filePath,
		certs:    make(map[string]CertificateEntry),
	}

	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *CertificateStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read known servers file: %w", err)
	}

	var file knownServersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse known servers file: %w", err)
	}

	for _, entry := range file.Servers {
		s.certs[entry.Host] = entry
	}
	return nil
}

// save writes the store; callers hold s.mu.
func (s *CertificateStore) save() error {
	entries := make([]CertificateEntry, 0, len(s.certs))
	for _, entry := range s.certs {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Host < entries[j].Host })

	data, err := yaml.Marshal(&knownServersFile{Servers: entries})
	if err != nil {
		return fmt.Errorf("failed to marshal known servers: %w", err)
	}

	// #nosec G306 - Certificate fingerprints are public information, 0644 is appropriate
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write known servers file: %w", err)
	}
	return nil
}

// IsKnown reports whether cert matches the fingerprint stored for host.
func (s *CertificateStore) IsKnown(host string, cert *x509.Certificate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.certs[host]
	return exists && entry.Fingerprint == ComputeFingerprint(cert)
}

// Add records cert as trusted for host and persists the store.
func (s *CertificateStore) Add(host string, cert *x509.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.certs[host] = CertificateEntry{
		Host:        host,
		Fingerprint: ComputeFingerprint(cert),
		Subject:     cert.Subject.String(),
		AcceptedAt:  time.Now().UTC(),
	}
	return s.save()
}

// Get returns the stored entry for host, or nil.
func (s *CertificateStore) Get(host string) *CertificateEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.certs[host]; exists {
		return &entry
	}
	return nil
}

// Remove forgets host and persists the store.
func (s *CertificateStore) Remove(host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.certs, host)
	return s.save()
}

// VerifyFingerprint returns an error when host is known but cert does not
// match its stored fingerprint. Unknown hosts are not an error.
func (s *CertificateStore) VerifyFingerprint(host string, cert *x509.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.certs[host]
	if !exists {
		return nil
	}

	actual := ComputeFingerprint(cert)
	if entry.Fingerprint != actual {
		return fmt.Errorf("certificate fingerprint mismatch for %s\n"+
			"Expected: %s\n"+
			"Got:      %s\n"+
			"This could indicate a man-in-the-middle attack or certificate rotation.\n"+
			"If you trust this certificate, remove the old entry from: %s",
			host, entry.Fingerprint, actual, s.filePath)
	}
	return nil
}
