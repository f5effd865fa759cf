package testutil

import "errors"

// ErrSimulated — sentinel для проверки путей обработки ошибок (store, wallet).
var ErrSimulated = errors.New("simulated failure")
