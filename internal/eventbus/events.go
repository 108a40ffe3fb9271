package eventbus

import "github.com/annel0/unlimited-mining/internal/vec"

// Типы событий
const (
	TypeInteraction     = "interaction"
	TypePlayerLeave     = "player_leave"
	TypeVoxelMined      = "voxel_mined"
	TypeMineCreated     = "mine_created"
	TypeMineCleared     = "mine_cleared"
	TypeResourcesSold   = "resources_sold"
	TypePickaxeUpgraded = "pickaxe_upgraded"
)

// AllTypes перечисляет известные типы событий
var AllTypes = []string{
	TypeInteraction,
	TypePlayerLeave,
	TypeVoxelMined,
	TypeMineCreated,
	TypeMineCleared,
	TypeResourcesSold,
	TypePickaxeUpgraded,
}

// InteractionEvent - игрок взаимодействовал с кирпичом хоста
type InteractionEvent struct {
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name,omitempty"`
	Position   vec.Vec3 `json:"position"`
	BrickName  string   `json:"brick_name"`
	Tag        string   `json:"tag"`
}

// PlayerLeaveEvent - игрок покинул сервер
type PlayerLeaveEvent struct {
	PlayerID string `json:"player_id"`
}

// VoxelMinedEvent - воксель разрушен
type VoxelMinedEvent struct {
	PlayerID string   `json:"player_id"`
	Position vec.Vec3 `json:"position"`
	Type     string   `json:"type"`
	Revealed int      `json:"revealed"`
	Amount   int      `json:"amount"`
}

// MineEvent - создание или очистка шахты
type MineEvent struct {
	Voxels int      `json:"voxels"`
	Origin vec.Vec3 `json:"origin"`
}

// ResourcesSoldEvent - игрок продал инвентарь
type ResourcesSoldEvent struct {
	PlayerID string  `json:"player_id"`
	Value    float64 `json:"value"`
	Money    float64 `json:"money"`
}

// PickaxeUpgradedEvent - игрок улучшил кирку
type PickaxeUpgradedEvent struct {
	PlayerID string  `json:"player_id"`
	Level    int     `json:"level"`
	Cost     float64 `json:"cost"`
}
