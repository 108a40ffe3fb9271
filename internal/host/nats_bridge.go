package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/vec"
	nats "github.com/nats-io/nats.go"
)

// Subjects моста к внешнему хосту
const (
	SubjectPlace       = "host.world.place"
	SubjectClearRegion = "host.world.clear_region"
	SubjectClearOwner  = "host.world.clear_owner"
	SubjectPlayerName  = "host.player.name"
	SubjectMiddlePrint = "host.player.middle_print"
	SubjectWhisper     = "host.player.whisper"
	SubjectBroadcast   = "host.broadcast"
)

// DefaultRequestTimeout - таймаут запроса, если в контексте нет дедлайна
const DefaultRequestTimeout = 5 * time.Second

// Сообщения протокола моста
type (
	PlaceRequest struct {
		Owner  string  `json:"owner"`
		Bricks []Brick `json:"bricks"`
	}
	ClearRegionRequest struct {
		Center vec.Vec3 `json:"center"`
		Extent vec.Vec3 `json:"extent"`
	}
	ClearOwnerRequest struct {
		Owner string `json:"owner"`
	}
	NameRequest struct {
		PlayerID string `json:"player_id"`
	}
	Reply struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
		Name  string `json:"name,omitempty"`
	}
	Notification struct {
		PlayerID string   `json:"player_id,omitempty"`
		Lines    []string `json:"lines"`
	}
)

// NatsWorld выполняет операции мира через request/reply NATS
type NatsWorld struct {
	nc      *nats.Conn
	timeout time.Duration
}

// NewNatsWorld создаёт мост мира
func NewNatsWorld(nc *nats.Conn, timeout time.Duration) *NatsWorld {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &NatsWorld{nc: nc, timeout: timeout}
}

// PlaceBricks отправляет пакет кирпичей одним запросом
func (w *NatsWorld) PlaceBricks(ctx context.Context, owner string, bricks []Brick) error {
	_, err := request(ctx, w.nc, w.timeout, SubjectPlace, PlaceRequest{Owner: owner, Bricks: bricks})
	return err
}

// ClearRegion очищает область
func (w *NatsWorld) ClearRegion(ctx context.Context, center, extent vec.Vec3) error {
	_, err := request(ctx, w.nc, w.timeout, SubjectClearRegion, ClearRegionRequest{Center: center, Extent: extent})
	return err
}

// ClearOwner удаляет все кирпичи владельца
func (w *NatsWorld) ClearOwner(ctx context.Context, owner string) error {
	_, err := request(ctx, w.nc, w.timeout, SubjectClearOwner, ClearOwnerRequest{Owner: owner})
	return err
}

// NatsPresenter публикует уведомления игрокам через NATS
type NatsPresenter struct {
	nc      *nats.Conn
	timeout time.Duration
	logger  *logging.Logger
}

// NewNatsPresenter создаёт мост уведомлений
func NewNatsPresenter(nc *nats.Conn, timeout time.Duration) *NatsPresenter {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &NatsPresenter{nc: nc, timeout: timeout, logger: logging.GetHostLogger()}
}

// DisplayName запрашивает имя игрока у хоста
func (p *NatsPresenter) DisplayName(ctx context.Context, playerID string) (string, error) {
	reply, err := request(ctx, p.nc, p.timeout, SubjectPlayerName, NameRequest{PlayerID: playerID})
	if err != nil {
		return "", err
	}
	if reply.Name == "" {
		return playerID, nil
	}
	return reply.Name, nil
}

// MiddlePrint показывает сообщение по центру экрана
func (p *NatsPresenter) MiddlePrint(playerID, message string) {
	p.publish(SubjectMiddlePrint, Notification{PlayerID: playerID, Lines: []string{message}})
}

// Whisper отправляет личные строки
func (p *NatsPresenter) Whisper(playerID string, lines ...string) {
	p.publish(SubjectWhisper, Notification{PlayerID: playerID, Lines: lines})
}

// Broadcast отправляет сообщение всем
func (p *NatsPresenter) Broadcast(message string) {
	p.publish(SubjectBroadcast, Notification{Lines: []string{message}})
}

func (p *NatsPresenter) publish(subject string, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		p.logger.Error("Ошибка сериализации уведомления: %v", err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("Не удалось опубликовать %s: %v", subject, err)
	}
}

func request(ctx context.Context, nc *nats.Conn, timeout time.Duration, subject string, payload interface{}) (Reply, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, fmt.Errorf("%s: marshal: %w", subject, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	msg, err := nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return Reply{}, fmt.Errorf("%s: %w", subject, err)
	}

	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return Reply{}, fmt.Errorf("%s: bad reply: %w", subject, err)
	}
	if !reply.OK {
		return reply, fmt.Errorf("%s: %w", subject, errors.New(reply.Error))
	}
	return reply, nil
}
