package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
)

// SubjectPrefix - префикс subject для событий шахты
const SubjectPrefix = "um.events."

// DefaultStream - имя стрима по умолчанию
const DefaultStream = "MINING"

// JetStreamConfig описывает подключение шины к JetStream
type JetStreamConfig struct {
	URL       string
	Stream    string
	Retention time.Duration
	// Replay доставляет подписчикам события из истории стрима, а не только новые
	Replay bool
	// AckWait - сколько JetStream ждёт подтверждения перед повторной доставкой
	AckWait time.Duration
}

func (c *JetStreamConfig) applyDefaults() {
	if c.Stream == "" {
		c.Stream = DefaultStream
	}
	if c.AckWait <= 0 {
		c.AckWait = 30 * time.Second
	}
}

// JetStreamBus реализует EventBus поверх NATS JetStream
type JetStreamBus struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	cfg       JetStreamConfig
	ownsConn  bool
	published uint64
	consumed  uint64
	dropped   uint64
}

// NewJetStreamBus подключается к NATS по cfg.URL и гарантирует наличие стрима
func NewJetStreamBus(cfg JetStreamConfig) (*JetStreamBus, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("unlimited-mining"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	bus, err := NewJetStreamBusFromConn(nc, cfg)
	if err != nil {
		_ = nc.Drain()
		return nil, err
	}
	bus.ownsConn = true
	return bus, nil
}

// NewJetStreamBusFromConn использует готовое соединение; Close его не закрывает
func NewJetStreamBusFromConn(nc *nats.Conn, cfg JetStreamConfig) (*JetStreamBus, error) {
	cfg.applyDefaults()

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStream(js, cfg); err != nil {
		return nil, err
	}
	return &JetStreamBus{nc: nc, js: js, cfg: cfg}, nil
}

// ensureStream создаёт стрим um.events.* или обновляет его срок хранения.
// Нулевой Retention не меняет существующий стрим.
func ensureStream(js nats.JetStreamContext, cfg JetStreamConfig) error {
	streamCfg := &nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{SubjectPrefix + "*"},
		Retention: nats.LimitsPolicy,
		MaxAge:    cfg.Retention,
		Storage:   nats.FileStorage,
	}

	info, err := js.StreamInfo(cfg.Stream)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		if _, err := js.AddStream(streamCfg); err != nil {
			return fmt.Errorf("add stream %s: %w", cfg.Stream, err)
		}
	case err != nil:
		return fmt.Errorf("stream info %s: %w", cfg.Stream, err)
	case cfg.Retention > 0 && info.Config.MaxAge != cfg.Retention:
		if _, err := js.UpdateStream(streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", cfg.Stream, err)
		}
	}
	return nil
}

// Subject возвращает subject для типа события
func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// EventTypeFromSubject извлекает тип события из subject
func EventTypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}

// Publish публикует Envelope в JSON в subject um.events.<type>
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return fmt.Errorf("marshal %s: %w", ev.EventType, err)
	}
	if _, err = jb.js.Publish(Subject(ev.EventType), data, nats.Context(ctx), nats.MsgId(ev.ID)); err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return fmt.Errorf("publish %s: %w", ev.EventType, err)
	}
	atomic.AddUint64(&jb.published, 1)
	return nil
}

// Subscribe создаёт по эфемерному consumer'у на каждый тип из фильтра
// (или один на um.events.*, если типы не заданы). Источники фильтруются
// на стороне клиента.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subjects := []string{SubjectPrefix + "*"}
	if len(f.Types) > 0 {
		subjects = subjects[:0]
		for _, t := range f.Types {
			subjects = append(subjects, Subject(t))
		}
	}

	deliver := nats.DeliverNew()
	if jb.cfg.Replay {
		deliver = nats.DeliverAll()
	}

	sub := &jetSub{}
	for _, subject := range subjects {
		natSub, err := jb.js.Subscribe(subject, jb.deliver(ctx, f, h),
			nats.ManualAck(), deliver, nats.AckWait(jb.cfg.AckWait),
			nats.Description("um subscriber "+uuid.NewString()))
		if err != nil {
			sub.Unsubscribe()
			return nil, fmt.Errorf("subscribe %s: %w", subject, err)
		}
		sub.subs = append(sub.subs, natSub)
	}
	return sub, nil
}

func (jb *JetStreamBus) deliver(ctx context.Context, f Filter, h Handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		defer func() { _ = msg.Ack() }()

		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			atomic.AddUint64(&jb.dropped, 1)
			return
		}
		if ev.EventType == "" {
			ev.EventType = EventTypeFromSubject(msg.Subject)
		}
		if !matchFilter(&ev, f) {
			return
		}
		h(ctx, &ev)
		atomic.AddUint64(&jb.consumed, 1)
	}
}

type jetSub struct {
	subs []*nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	for _, s := range j.subs {
		_ = s.Unsubscribe()
	}
	j.subs = nil
}

// Metrics возвращает счётчики шины; очередью управляет сам JetStream
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jb.published),
		Consumed:  atomic.LoadUint64(&jb.consumed),
		Dropped:   atomic.LoadUint64(&jb.dropped),
	}
}

// Conn возвращает соединение NATS
func (jb *JetStreamBus) Conn() *nats.Conn {
	return jb.nc
}

// Close дренирует соединение, если шина открыла его сама
func (jb *JetStreamBus) Close() error {
	if !jb.ownsConn {
		return nil
	}
	return jb.nc.Drain()
}
