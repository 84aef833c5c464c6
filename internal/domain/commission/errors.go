package commission

import "errors"

var (
	// ErrInvalidRate 手数料率・税率が範囲外
	ErrInvalidRate = errors.New("invalid commission rate")
	// ErrInvalidGrossAmount 総額が無効
	ErrInvalidGrossAmount = errors.New("invalid gross amount")
	// ErrCommissionNotFound 手数料レコードが見つからない
	ErrCommissionNotFound = errors.New("commission not found")
)
