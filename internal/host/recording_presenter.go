package host

import (
	"context"
	"strings"
	"sync"

	"github.com/annel0/unlimited-mining/internal/logging"
)

// Виды сообщений
const (
	KindMiddle    = "middle"
	KindWhisper   = "whisper"
	KindBroadcast = "broadcast"
)

// Message - записанное уведомление
type Message struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// RecordingPresenter запоминает уведомления по игрокам и пишет их в лог
type RecordingPresenter struct {
	mu        sync.Mutex
	names     map[string]string
	messages  map[string][]Message
	broadcast []string
	limit     int
	logger    *logging.Logger
}

// NewRecordingPresenter создаёт презентер; limit ограничивает историю на игрока (0 - без ограничения)
func NewRecordingPresenter(limit int) *RecordingPresenter {
	return &RecordingPresenter{
		names:    make(map[string]string),
		messages: make(map[string][]Message),
		limit:    limit,
		logger:   logging.GetHostLogger(),
	}
}

// SetName задаёт отображаемое имя игрока
func (p *RecordingPresenter) SetName(playerID, name string) {
	p.mu.Lock()
	p.names[playerID] = name
	p.mu.Unlock()
}

// DisplayName возвращает известное имя или сам id
func (p *RecordingPresenter) DisplayName(_ context.Context, playerID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name, ok := p.names[playerID]; ok {
		return name, nil
	}
	return playerID, nil
}

// MiddlePrint записывает сообщение по центру экрана
func (p *RecordingPresenter) MiddlePrint(playerID, message string) {
	p.record(playerID, Message{Kind: KindMiddle, Text: message})
}

// Whisper записывает личные строки
func (p *RecordingPresenter) Whisper(playerID string, lines ...string) {
	for _, line := range lines {
		p.record(playerID, Message{Kind: KindWhisper, Text: line})
	}
}

// Broadcast записывает сообщение для всех
func (p *RecordingPresenter) Broadcast(message string) {
	p.mu.Lock()
	p.broadcast = append(p.broadcast, message)
	p.mu.Unlock()
	p.logger.Info("📣 %s", message)
}

// Messages возвращает копию истории игрока
func (p *RecordingPresenter) Messages(playerID string) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages[playerID]...)
}

// Last возвращает последнее сообщение игрока
func (p *RecordingPresenter) Last(playerID string) (Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.messages[playerID]
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Texts возвращает тексты сообщений игрока указанного вида
func (p *RecordingPresenter) Texts(playerID, kind string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.messages[playerID] {
		if m.Kind == kind {
			out = append(out, m.Text)
		}
	}
	return out
}

// Broadcasts возвращает общие сообщения
func (p *RecordingPresenter) Broadcasts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.broadcast...)
}

// Reset очищает историю
func (p *RecordingPresenter) Reset() {
	p.mu.Lock()
	p.messages = make(map[string][]Message)
	p.broadcast = nil
	p.mu.Unlock()
}

func (p *RecordingPresenter) record(playerID string, m Message) {
	p.mu.Lock()
	msgs := append(p.messages[playerID], m)
	if p.limit > 0 && len(msgs) > p.limit {
		msgs = msgs[len(msgs)-p.limit:]
	}
	p.messages[playerID] = msgs
	p.mu.Unlock()

	p.logger.Debug("[%s] %s: %s", m.Kind, playerID, strings.ReplaceAll(m.Text, "\n", " "))
}
