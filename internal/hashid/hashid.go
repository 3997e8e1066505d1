// Package hashid turns internal numeric values into short public tokens.
//
// Tokens are Hashids encodings parameterized by a secret salt, a minimum
// length and a custom alphabet. The same value always yields the same token
// for a given configuration, and tokens do not reveal the ordering of the
// values behind them.
package hashid

import (
	"errors"
	"fmt"

	hashids "github.com/speps/go-hashids/v2"

	"github.com/FACorreiaa/go-cemetery-registry/config"
)

var ErrInvalidToken = errors.New("invalid public token")

// Encoder is the contract consumed by the file asset manager.
type Encoder interface {
	Encode(value int64) string
}

var _ Encoder = (*Obfuscator)(nil)

type Obfuscator struct {
	h *hashids.HashID
}

// New builds an Obfuscator. The configuration is validated once here;
// Encode never fails afterwards.
func New(cfg config.HashID) (*Obfuscator, error) {
	hd := hashids.NewData()
	hd.Salt = cfg.Salt
	hd.MinLength = cfg.Length
	if cfg.Alphabet != "" {
		hd.Alphabet = cfg.Alphabet
	}

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashid: invalid configuration: %w", err)
	}
	return &Obfuscator{h: h}, nil
}

// Encode returns the public token for value. Negative values are a caller bug.
func (o *Obfuscator) Encode(value int64) string {
	if value < 0 {
		panic(fmt.Sprintf("hashid: cannot encode negative value %d", value))
	}
	token, err := o.h.EncodeInt64([]int64{value})
	if err != nil {
		// only reachable for negative input, rejected above
		panic(fmt.Sprintf("hashid: encode %d: %v", value, err))
	}
	return token
}

// Decode reverses Encode. Used by admin tooling and tests.
func (o *Obfuscator) Decode(token string) (int64, error) {
	values, err := o.h.DecodeInt64WithError(token)
	if err != nil || len(values) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return values[0], nil
}
