package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Harsh-BH/baywatch/internal/domain"
)

const (
	exchangeName = "baywatch.events"

	retryMinDelay = 2 * time.Second
	retryMaxDelay = 30 * time.Second

	confirmTimeout = 5 * time.Second
)

// ErrNotConnected is returned while the publisher is between connections.
var ErrNotConnected = errors.New("rabbitmq: not connected")

// Publisher delivers committed job lifecycle events to downstream consumers
// such as customer notification.
type Publisher interface {
	Publish(ctx context.Context, event *domain.JobEvent) error
	Close() error
}

// RabbitPublisher publishes job events to a topic exchange with publisher
// confirms. Routing keys are "<event type>.<branch id>", so a consumer can bind
// "job.completed.*" or "#.7" for a single branch.
type RabbitPublisher struct {
	url    string
	logger *zap.Logger

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel

	done      chan struct{}
	closeOnce sync.Once
}

// NewRabbitMQPublisher dials the broker and declares the event exchange. The
// connection is re-established in the background if it drops later.
func NewRabbitMQPublisher(url string, logger *zap.Logger) (*RabbitPublisher, error) {
	p := &RabbitPublisher{
		url:    url,
		logger: logger,
		done:   make(chan struct{}),
	}

	closed, err := p.dial()
	if err != nil {
		return nil, err
	}
	go p.supervise(closed)

	return p, nil
}

// dial opens a confirming channel and swaps it in. The returned channel fires
// when the new connection closes.
func (p *RabbitPublisher) dial() (<-chan *amqp.Error, error) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err == nil {
		err = ch.Confirm(false)
	}
	if err == nil {
		err = ch.ExchangeDeclare(exchangeName, amqp.ExchangeTopic, true, false, false, false, nil)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: prepare channel: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	p.mu.Lock()
	p.conn, p.ch = conn, ch
	p.mu.Unlock()

	p.logger.Info("RabbitMQ publisher ready", zap.String("exchange", exchangeName))
	return closed, nil
}

func (p *RabbitPublisher) supervise(closed <-chan *amqp.Error) {
	for {
		select {
		case <-p.done:
			return
		case reason, ok := <-closed:
			select {
			case <-p.done:
				return
			default:
			}

			p.mu.Lock()
			p.conn, p.ch = nil, nil
			p.mu.Unlock()

			fields := []zap.Field{}
			if ok && reason != nil {
				fields = append(fields, zap.String("reason", reason.Error()))
			}
			p.logger.Warn("RabbitMQ connection lost, reconnecting", fields...)

			next, err := p.redial()
			if err != nil {
				return
			}
			closed = next
		}
	}
}

// redial retries with exponential backoff until it succeeds or Close is called.
func (p *RabbitPublisher) redial() (<-chan *amqp.Error, error) {
	delay := retryMinDelay
	for {
		select {
		case <-p.done:
			return nil, ErrNotConnected
		case <-time.After(delay):
		}

		closed, err := p.dial()
		if err == nil {
			return closed, nil
		}
		p.logger.Warn("RabbitMQ reconnect failed", zap.Error(err), zap.Duration("retry_in", delay))
		delay = min(delay*2, retryMaxDelay)
	}
}

// Publish sends the event and waits for the broker to confirm it.
func (p *RabbitPublisher) Publish(ctx context.Context, event *domain.JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.RLock()
	ch := p.ch
	p.mu.RUnlock()
	if ch == nil {
		return ErrNotConnected
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID(event),
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Headers: amqp.Table{
			"job_id":    event.JobID,
			"branch_id": event.BranchID,
		},
		Body: body,
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchangeName, routingKey(event), false, false, msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", event.Type, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirm.WaitContext(waitCtx)
	switch {
	case err != nil:
		return fmt.Errorf("rabbitmq: confirm %s for job %d: %w", event.Type, event.JobID, err)
	case !acked:
		return fmt.Errorf("rabbitmq: broker nacked %s for job %d", event.Type, event.JobID)
	}

	p.logger.Debug("Published job event",
		zap.String("routing_key", routingKey(event)),
		zap.Int64("job_id", event.JobID),
	)
	return nil
}

// Healthy reports whether a broker connection is currently open.
func (p *RabbitPublisher) Healthy(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.conn == nil || p.conn.IsClosed() {
		return ErrNotConnected
	}
	return nil
}

// Close stops reconnecting and closes the connection.
func (p *RabbitPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	conn := p.conn
	p.conn, p.ch = nil, nil
	p.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func routingKey(event *domain.JobEvent) string {
	return string(event.Type) + "." + strconv.FormatInt(event.BranchID, 10)
}

func messageID(event *domain.JobEvent) string {
	return fmt.Sprintf("%s:%d:%d", event.Type, event.JobID, event.OccurredAt.UnixNano())
}
