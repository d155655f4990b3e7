package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

const (
	upperAlphanum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	alphanum      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// randomCode draws n characters from alphabet using crypto/rand.
func randomCode(alphabet string, n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand failure is not recoverable
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}

// newPartyCode is the short code scanner devices type to attach to a party.
func newPartyCode() string { return randomCode(upperAlphanum, 6) }

// newShareCode invites collaborators.
func newShareCode() string { return randomCode(upperAlphanum, 8) }

// newQRHash is the guest credential encoded in the QR image. 32 alphanumeric
// characters; uniqueness is enforced by the database, callers retry on
// conflict so a deleted guest's credential is never reissued by accident.
func newQRHash() string { return randomCode(alphanum, 32) }

// newLinkID identifies the public party page.
func newLinkID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
