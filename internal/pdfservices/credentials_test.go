package pdfservices_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices"
	"github.com/Lllllllleong/pdfservicesflow/internal/pdfservices/pdfservicestest"
)

func newKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func TestServicePrincipalCredentialsRequireFields(t *testing.T) {
	tests := []struct {
		id, secret, field string
	}{
		{"", "secret", "clientId"},
		{"id", " ", "clientSecret"},
	}
	for _, tc := range tests {
		_, err := pdfservices.NewServicePrincipalCredentials(tc.id, tc.secret)
		var perr *pdfservices.Error
		if !errors.As(err, &perr) || perr.Kind != pdfservices.KindValidation || perr.Field != tc.field {
			t.Errorf("NewServicePrincipalCredentials(%q, %q) = %v, want validation error on %s", tc.id, tc.secret, err, tc.field)
		}
	}
}

func TestServiceAccountCredentialsExchangeSignedJWT(t *testing.T) {
	key, pemBytes := newKey(t)
	svc := pdfservicestest.NewService(t, pdfservicestest.WithJWTKey(&key.PublicKey))

	creds, err := pdfservices.NewServiceAccountCredentials(pdfservices.ServiceAccountConfig{
		ClientID:           svc.ClientID,
		ClientSecret:       svc.ClientSecret,
		TechnicalAccountID: "tech@techacct.example.com",
		OrganizationID:     "org@AdobeOrg",
		PrivateKeyPEM:      pemBytes,
	})
	if err != nil {
		t.Fatalf("NewServiceAccountCredentials: %v", err)
	}
	client, err := pdfservices.New(creds, pdfservices.ClientConfig{BaseURL: svc.URL, IMSURL: svc.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	upload(t, client, samplePDF)
	upload(t, client, samplePDF)

	if got := svc.Count("POST /ims/exchange/jwt"); got != 1 {
		t.Errorf("JWT exchanges = %d, want 1 (token reuse)", got)
	}
}

func TestServiceAccountCredentialsWrongKeyIsAuthError(t *testing.T) {
	key, _ := newKey(t)
	_, otherPEM := newKey(t)
	svc := pdfservicestest.NewService(t, pdfservicestest.WithJWTKey(&key.PublicKey))

	creds, err := pdfservices.NewServiceAccountCredentials(pdfservices.ServiceAccountConfig{
		ClientID:           svc.ClientID,
		ClientSecret:       svc.ClientSecret,
		TechnicalAccountID: "tech",
		OrganizationID:     "org",
		PrivateKeyPEM:      otherPEM,
	})
	if err != nil {
		t.Fatalf("NewServiceAccountCredentials: %v", err)
	}
	client, err := pdfservices.New(creds, pdfservices.ClientConfig{BaseURL: svc.URL, IMSURL: svc.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.RefreshAsset(context.Background(), pdfservices.Asset{ID: "anything"})
	if !errors.Is(err, pdfservices.ErrAuth) {
		t.Fatalf("RefreshAsset error = %v, want auth error", err)
	}
}

func TestLoadCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	_, pemBytes := newKey(t)
	if err := os.WriteFile(filepath.Join(dir, "private.key"), pemBytes, 0o600); err != nil {
		t.Fatal(err)
	}
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	principal := write("principal.json", `{"client_credentials":{"client_id":"cid","client_secret":"sec"}}`)
	creds, err := pdfservices.LoadCredentialsFile(principal)
	if err != nil {
		t.Fatalf("LoadCredentialsFile(principal): %v", err)
	}
	if _, ok := creds.(*pdfservices.ServicePrincipalCredentials); !ok || creds.ClientID() != "cid" {
		t.Errorf("principal file loaded as %T (%s)", creds, creds.ClientID())
	}

	account := write("account.json", `{
		"client_credentials": {"client_id": "cid", "client_secret": "sec"},
		"service_account_credentials": {"organization_id": "org", "account_id": "acct", "private_key_file": "private.key"}
	}`)
	creds, err = pdfservices.LoadCredentialsFile(account)
	if err != nil {
		t.Fatalf("LoadCredentialsFile(account): %v", err)
	}
	if _, ok := creds.(*pdfservices.ServiceAccountCredentials); !ok {
		t.Errorf("account file loaded as %T", creds)
	}

	missing := write("missing.json", `{"client_credentials":{"client_id":"cid"}}`)
	if _, err := pdfservices.LoadCredentialsFile(missing); !errors.Is(err, pdfservices.ErrValidation) {
		t.Errorf("missing secret error = %v, want validation error", err)
	}
}
