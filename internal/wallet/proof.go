// Package wallet verifies TON Connect wallet-ownership proofs and
// normalizes wallet addresses into the canonical vault identity key.
package wallet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	// proofPrefix is the fixed prefix from the TON Connect spec.
	// https://docs.ton.org/develop/dapps/ton-connect/sign#checking-ton_proof-on-server-side
	proofPrefix = "ton-proof-item-v2/"

	// connectPrefix precedes the SHA256 of the assembled message.
	connectPrefix = "ton-connect"
)

// Proof carries the signed ownership statement from the wallet.
type Proof struct {
	Timestamp int64       `json:"timestamp"`
	Domain    ProofDomain `json:"domain"`
	Payload   string      `json:"payload"`   // server-issued nonce
	Signature string      `json:"signature"` // hex
}

type ProofDomain struct {
	LengthBytes int    `json:"lengthBytes"`
	Value       string `json:"value"`
}

// VerifyProof checks a wallet-ownership proof signature.
//
// Per the TON Connect spec:
//  1. message = "ton-proof-item-v2/" ++ workchain(4 LE) ++ addr_hash(32)
//     ++ domain_len(4 LE) ++ domain ++ timestamp(8 LE) ++ payload
//  2. sigMessage = 0xffff ++ "ton-connect" ++ sha256(message)
//  3. ed25519.Verify(pubKey, sha256(sigMessage), signature)
func VerifyProof(pubKeyHex string, addrHash []byte, workchain int32, proof Proof, allowedDomains []string, maxAge time.Duration) error {
	proofTime := time.Unix(proof.Timestamp, 0)
	if time.Since(proofTime) > maxAge {
		return fmt.Errorf("proof expired: %s old", time.Since(proofTime).Round(time.Second))
	}
	if proofTime.After(time.Now().Add(1 * time.Minute)) {
		return fmt.Errorf("proof timestamp is in the future")
	}

	if !domainAllowed(proof.Domain.Value, allowedDomains) {
		return fmt.Errorf("domain %q not in allowed list", proof.Domain.Value)
	}

	pubKey, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return fmt.Errorf("invalid public key hex: %w", err)
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key size: %d", len(pubKey))
	}

	sig, err := hex.DecodeString(proof.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid signature size: %d", len(sig))
	}

	message := BuildProofMessage(addrHash, workchain, proof)
	msgHash := sha256.Sum256(message)

	sigMessage := []byte{0xff, 0xff}
	sigMessage = append(sigMessage, []byte(connectPrefix)...)
	sigMessage = append(sigMessage, msgHash[:]...)

	finalHash := sha256.Sum256(sigMessage)
	if !ed25519.Verify(pubKey, finalHash[:], sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// BuildProofMessage assembles the unhashed proof message. Exported so tests
// can sign the exact bytes the verifier expects.
func BuildProofMessage(addrHash []byte, workchain int32, proof Proof) []byte {
	message := []byte(proofPrefix)

	wc := make([]byte, 4)
	binary.LittleEndian.PutUint32(wc, uint32(workchain))
	message = append(message, wc...)
	message = append(message, addrHash...)

	domainLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(domainLen, uint32(proof.Domain.LengthBytes))
	message = append(message, domainLen...)
	message = append(message, []byte(proof.Domain.Value)...)

	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, uint64(proof.Timestamp))
	message = append(message, ts...)

	message = append(message, []byte(proof.Payload)...)
	return message
}

// ParseRaw parses "wc:hex" (e.g. "0:abcd..." or "-1:abcd...") into the
// workchain and the 32-byte address hash.
func ParseRaw(raw string) (workchain int32, addrHash []byte, err error) {
	var wc int
	var hashHex string
	n, _ := fmt.Sscanf(raw, "%d:%s", &wc, &hashHex)
	if n != 2 {
		return 0, nil, fmt.Errorf("invalid raw address format: %s", raw)
	}
	addrHash, err = hex.DecodeString(hashHex)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid address hash hex: %w", err)
	}
	if len(addrHash) != 32 {
		return 0, nil, fmt.Errorf("address hash must be 32 bytes, got %d", len(addrHash))
	}
	return int32(wc), addrHash, nil
}

// NormalizeRaw canonicalizes a raw address into the vault identity key:
// "wc:hex" with lower-case hex. Vault and guardian addresses are always
// stored and compared in this form.
func NormalizeRaw(raw string) (string, error) {
	wc, hash, err := ParseRaw(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%s", wc, hex.EncodeToString(hash)), nil
}

func domainAllowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		return true // empty list = dev mode, allow all
	}
	for _, d := range allowed {
		if d == domain {
			return true
		}
	}
	return false
}
