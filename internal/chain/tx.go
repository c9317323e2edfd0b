package chain

import (
	"encoding/base64"
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	// LamportsPerSOL is the smallest-unit factor of the chain token.
	LamportsPerSOL = 1_000_000_000

	// SystemProgramID owns native transfers.
	SystemProgramID = "11111111111111111111111111111111"

	addressLen   = 32
	signatureLen = 64

	systemTransferIndex = 2
)

var ErrAddressInvalid = errors.New("chain address is invalid")

// DecodeAddress validates a base58 address and returns its raw 32 bytes.
func DecodeAddress(addr string) ([]byte, error) {
	if addr == "" {
		return nil, ErrAddressInvalid
	}
	raw := base58.Decode(addr)
	if len(raw) != addressLen {
		return nil, ErrAddressInvalid
	}
	return raw, nil
}

// BuildTransferTransaction serializes an unsigned legacy transaction moving
// lamports from the payer to the merchant, valid only while the recent
// blockhash is. The single signature slot is zeroed; the payer's wallet
// fills it in before broadcast.
func BuildTransferTransaction(lamports int64, from, to, recentBlockhash string) (string, error) {
	if lamports <= 0 {
		return "", errors.New("lamports must be positive")
	}
	fromKey, err := DecodeAddress(from)
	if err != nil {
		return "", err
	}
	toKey, err := DecodeAddress(to)
	if err != nil {
		return "", err
	}
	blockhash, err := DecodeAddress(recentBlockhash)
	if err != nil {
		return "", errors.New("recent blockhash is invalid")
	}
	programKey, _ := DecodeAddress(SystemProgramID)

	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransferIndex)
	binary.LittleEndian.PutUint64(data[4:12], uint64(lamports))

	var msg []byte
	// Header: one required signature (payer), no read-only signed keys,
	// one read-only unsigned key (the system program).
	msg = append(msg, 1, 0, 1)
	msg = appendCompactU16(msg, 3)
	msg = append(msg, fromKey...)
	msg = append(msg, toKey...)
	msg = append(msg, programKey...)
	msg = append(msg, blockhash...)
	msg = appendCompactU16(msg, 1)
	msg = append(msg, 2) // program id index
	msg = appendCompactU16(msg, 2)
	msg = append(msg, 0, 1) // from, to
	msg = appendCompactU16(msg, len(data))
	msg = append(msg, data...)

	var tx []byte
	tx = appendCompactU16(tx, 1)
	tx = append(tx, make([]byte, signatureLen)...)
	tx = append(tx, msg...)

	return base64.StdEncoding.EncodeToString(tx), nil
}

func appendCompactU16(b []byte, v int) []byte {
	for {
		if v < 0x80 {
			return append(b, byte(v))
		}
		b = append(b, byte(v&0x7f)|0x80)
		v >>= 7
	}
}
