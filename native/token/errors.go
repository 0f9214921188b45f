package token

import "errors"

var (
	ErrNilState              = errors.New("token: state not configured")
	ErrTokenExists           = errors.New("token: token already registered")
	ErrTokenNotFound         = errors.New("token: token not registered")
	ErrInvalidAmount         = errors.New("token: amount must not be negative")
	ErrTransferFromZero      = errors.New("token: transfer from the zero address")
	ErrTransferToZero        = errors.New("token: transfer to the zero address")
	ErrApproveToZero         = errors.New("token: approve to the zero address")
	ErrMintToZero            = errors.New("token: mint to the zero address")
	ErrBurnFromZero          = errors.New("token: burn from the zero address")
	ErrInsufficientBalance   = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrBurnExceedsBalance    = errors.New("token: burn amount exceeds balance")
	ErrAllowanceBelowZero    = errors.New("token: decreased allowance below zero")
)
