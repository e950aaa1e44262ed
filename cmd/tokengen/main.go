// Package main provides a CLI tool for generating a local signer key set and
// test bearer tokens for opsgate. The keys are for development only.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"opsgate/internal/auth/token"
	"opsgate/internal/platform/config"
	"opsgate/pkg/secrets"
)

const (
	defaultKeyFile    = "dev-signer.pem"
	defaultKeySetFile = "dev-keyset.json"
	defaultTokenTTL   = time.Hour
	keyBits           = 2048
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    *token.Claims     `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	keysCmd := flag.NewFlagSet("keys", flag.ExitOnError)
	keysOut := keysCmd.String("key", defaultKeyFile, "Where to write the private key (PEM)")
	keysSet := keysCmd.String("keyset", defaultKeySetFile, "Where to write the key set JSON served as SIGNER_KEYS_URL")
	keysKid := keysCmd.String("kid", "", "Key id. Generated if empty.")

	secretCmd := flag.NewFlagSet("secret", flag.ExitOnError)
	secretBytes := secretCmd.Int("bytes", secrets.MinLength, "Bytes of entropy")

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenKey := tokenCmd.String("key", defaultKeyFile, "Private key written by 'tokengen keys'")
	tokenKid := tokenCmd.String("kid", "", "Key id of the signing key (required)")
	tokenProject := tokenCmd.String("project", os.Getenv("FIREBASE_PROJECT_ID"), "Project id used as audience")
	tokenIssuer := tokenCmd.String("issuer-prefix", config.DefaultTokenIssuerPrefix, "Issuer prefix")
	tokenSubject := tokenCmd.String("sub", "", "Subject. Generated if empty.")
	tokenEmail := tokenCmd.String("email", "", "Email claim (optional)")
	tokenTTL := tokenCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	tokenJSON := tokenCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "keys":
		_ = keysCmd.Parse(os.Args[2:])
		err = generateKeys(*keysOut, *keysSet, *keysKid)
	case "secret":
		_ = secretCmd.Parse(os.Args[2:])
		var secret string
		if secret, err = secrets.Generate(*secretBytes); err == nil {
			fmt.Printf("INTERNAL_API_KEY=%s\n", secret)
		}
	case "token":
		_ = tokenCmd.Parse(os.Args[2:])
		err = generateToken(tokenParams{
			keyFile:      *tokenKey,
			kid:          *tokenKid,
			project:      *tokenProject,
			issuerPrefix: *tokenIssuer,
			subject:      *tokenSubject,
			email:        *tokenEmail,
			ttl:          *tokenTTL,
			asJSON:       *tokenJSON,
		})
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate development signer keys and bearer tokens for opsgate

Usage:
  tokengen <command> [flags]

Commands:
  keys      Generate an RSA key pair and a key set JSON ({kid: certificate PEM})
  token     Sign an RS256 bearer token with a generated key
  secret    Generate a random shared secret for INTERNAL_API_KEY

Examples:
  tokengen keys -kid dev-1
  python3 -m http.server 8000 &   # serve dev-keyset.json
  SIGNER_KEYS_URL=http://localhost:8000/dev-keyset.json FIREBASE_PROJECT_ID=demo go run ./cmd/server
  tokengen token -kid dev-1 -project demo -sub ops-user

Run 'tokengen <command> -h' for command flags.`)
}

func generateKeys(keyFile, keySetFile, kid string) error {
	if kid == "" {
		kid = uuid.NewString()
	}
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	// The key set publishes self-signed certificates, the format the
	// production key endpoint serves.
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "opsgate-dev-signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(1, 0, 0),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	keySet, err := json.MarshalIndent(map[string]string{kid: string(certPEM)}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(keySetFile, keySet, 0o644); err != nil { //nolint:gosec // public key material
		return fmt.Errorf("write key set: %w", err)
	}

	fmt.Printf("kid:     %s\nkey:     %s\nkey set: %s\n", kid, keyFile, keySetFile)
	return nil
}

type tokenParams struct {
	keyFile      string
	kid          string
	project      string
	issuerPrefix string
	subject      string
	email        string
	ttl          time.Duration
	asJSON       bool
}

func generateToken(p tokenParams) error {
	if p.kid == "" {
		return errors.New("-kid is required")
	}
	if p.project == "" {
		return errors.New("-project is required (or set FIREBASE_PROJECT_ID)")
	}
	if p.subject == "" {
		p.subject = uuid.NewString()
	}

	raw, err := os.ReadFile(p.keyFile)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	now := time.Now()
	claims := &token.Claims{
		AuthTime: now.Unix(),
		Email:    p.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuerPrefix + p.project,
			Subject:   p.subject,
			Audience:  jwt.ClaimStrings{p.project},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			ID:        uuid.NewString(),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = p.kid
	signed, err := tok.SignedString(key)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	if !p.asJSON {
		fmt.Println(signed)
		return nil
	}
	out := tokenOutput{
		Token:     signed,
		ExpiresIn: p.ttl.String(),
		Claims:    claims,
		Usage: map[string]string{
			"header": "Authorization: Bearer " + signed,
			"curl":   fmt.Sprintf("curl -H 'Authorization: Bearer %s' http://localhost:3001/api/system/status", signed),
		},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
