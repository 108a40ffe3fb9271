package economy

import "errors"

var (
	// ErrNegativeAmount - попытка сделать количество ресурса отрицательным
	ErrNegativeAmount = errors.New("voxel amount cannot be negative")
	// ErrSessionClosed - обращение к сессии после Close
	ErrSessionClosed = errors.New("economy session is closed")
)
