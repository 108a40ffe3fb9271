package world

import "errors"

var (
	// ErrAlreadyCreated - шахта уже создана
	ErrAlreadyCreated = errors.New("the mine is already created")
	// ErrNotCreated - шахта ещё не создана
	ErrNotCreated = errors.New("there is no mine to clear")
	// ErrMissingVoxel - в позиции нет вокселя
	ErrMissingVoxel = errors.New("missing data for voxel")
	// ErrDuplicatePosition - две записи пакета указывают на одну позицию
	ErrDuplicatePosition = errors.New("duplicate position in voxel batch")
	// ErrInvalidMapping - некорректный размер ячейки
	ErrInvalidMapping = errors.New("cell size must be positive on every axis")
)
