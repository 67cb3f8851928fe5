package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// base62, URL-safe
	giftCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	giftCodeLength   = 10
)

func newOrderID() string {
	return "order_" + uuid.NewString()
}

func newGiftCode() (string, error) {
	result := make([]byte, giftCodeLength)
	n := big.NewInt(int64(len(giftCodeAlphabet)))
	for i := range result {
		num, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", fmt.Errorf("generate gift code: %w", err)
		}
		result[i] = giftCodeAlphabet[num.Int64()]
	}
	return string(result), nil
}
