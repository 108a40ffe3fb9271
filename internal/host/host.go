// Package host описывает контракты игрового хоста, к которому подключена шахта,
// и их реализации: in-memory для тестов и локального запуска, мост через NATS.
package host

import (
	"context"

	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
)

// Brick - кирпич, размещаемый в мире хоста
type Brick struct {
	Position vec.Vec3       `json:"position"` // мировая позиция центра
	Size     vec.Vec3       `json:"size"`     // половина размера по осям
	Asset    string         `json:"asset"`
	Color    voxel.Color    `json:"color"`
	Material voxel.Material `json:"material"`
	Tag      string         `json:"tag"` // сообщение, приходящее во взаимодействии
}

// World - запись и очистка кирпичей в мире хоста
type World interface {
	PlaceBricks(ctx context.Context, owner string, bricks []Brick) error
	ClearRegion(ctx context.Context, center, extent vec.Vec3) error
	ClearOwner(ctx context.Context, owner string) error
}

// Presenter - идентичность игроков и уведомления
type Presenter interface {
	DisplayName(ctx context.Context, playerID string) (string, error)
	MiddlePrint(playerID, message string)
	Whisper(playerID string, lines ...string)
	Broadcast(message string)
}

// Interaction - игрок нажал на кирпич
type Interaction struct {
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name,omitempty"`
	Position   vec.Vec3 `json:"position"` // мировая позиция кирпича
	BrickName  string   `json:"brick_name"`
	Tag        string   `json:"tag"`
}

// InteractionHandler обрабатывает взаимодействие
type InteractionHandler func(ctx context.Context, in Interaction)

// LeaveHandler обрабатывает выход игрока
type LeaveHandler func(ctx context.Context, playerID string)

// Subscription освобождает подписку детерминированно
type Subscription interface {
	Unsubscribe()
}

// Interactions - источник событий взаимодействия
type Interactions interface {
	OnInteraction(h InteractionHandler) (Subscription, error)
}

// Departures - источник событий выхода игроков
type Departures interface {
	OnLeave(h LeaveHandler) (Subscription, error)
}
