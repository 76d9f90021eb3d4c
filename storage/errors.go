package storage

import "errors"

var ErrUnknownParam = errors.New("storage: unknown ledger parameter")
