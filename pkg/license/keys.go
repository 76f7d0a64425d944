// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package license

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"os"

	"gitlab.com/tozd/go/errors"
)

// ParsePublicKey decodes a PEM "PUBLIC KEY" (PKIX) or "RSA PUBLIC KEY"
// (PKCS#1) block.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found in public key")
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Errorf("parsing PKCS#1 public key: %w", err)
		}
		return key, nil
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errors.Errorf("parsing PKIX public key: %w", err)
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, errors.Errorf("public key is %T, not RSA", parsed)
		}
		return key, nil
	default:
		return nil, errors.Errorf("unsupported PEM block %q", block.Type)
	}
}

// LoadPrivateKey reads a PEM "RSA PRIVATE KEY" (PKCS#1) or "PRIVATE KEY"
// (PKCS#8) file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading private key: %w", err)
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey is LoadPrivateKey for in memory PEM data.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found in private key")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Errorf("parsing PKCS#1 private key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.Errorf("parsing PKCS#8 private key: %w", err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.Errorf("private key is %T, not RSA", parsed)
		}
		return key, nil
	default:
		return nil, errors.Errorf("unsupported PEM block %q", block.Type)
	}
}

// EncodePublicKey renders key as a PKIX PEM block.
func EncodePublicKey(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, errors.Errorf("marshalling public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// NewField marshals value into a license member.
func NewField(key string, value any) (Field, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Field{}, errors.Errorf("marshalling %q: %w", key, err)
	}
	return Field{Key: key, Value: raw}, nil
}

// ✍️ Sign produces a complete license document for fields.
//
// Any signature member in fields is ignored. The returned document lists the
// members in the given order followed by the signature, one per line.
func Sign(fields []Field, key *rsa.PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, errors.New("signing key is nil")
	}

	payload, err := CanonicalPayload(fields)
	if err != nil {
		return nil, errors.Errorf("building payload: %w", err)
	}

	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, errors.Errorf("signing payload: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for _, f := range fields {
		if f.Key == SignatureField {
			continue
		}
		buf.WriteString("  ")
		writeString(&buf, f.Key)
		buf.WriteString(": ")
		if err := writeCanonical(&buf, f.Value); err != nil {
			return nil, errors.Errorf("encoding %q: %w", f.Key, err)
		}
		buf.WriteString(",\n")
	}
	buf.WriteString("  ")
	writeString(&buf, SignatureField)
	buf.WriteString(": ")
	writeString(&buf, base64.StdEncoding.EncodeToString(sig))
	buf.WriteString("\n}\n")

	return buf.Bytes(), nil
}
