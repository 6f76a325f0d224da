package common

import (
	"encoding/hex"
	"errors"
	"strconv"
)

// ToHex returns "0x" prefixed lowercase hex of b
func ToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// GetUint64FromStr get uint64 from string
func GetUint64FromStr(str string) (uint64, error) {
	res, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, errors.New("invalid unsigned 64 bit integer: " + str)
	}
	return res, nil
}
