package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medlink-booking/internal/domain/entity"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Event types published after a committed state change.
const (
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentCompleted = "appointment.completed"
	EventPaymentDeclined      = "payment.declined"
)

const notifyTimeout = 5 * time.Second

type AppointmentEvent struct {
	Type          string                   `json:"type"`
	AppointmentID uuid.UUID                `json:"appointment_id"`
	PatientID     uuid.UUID                `json:"patient_id"`
	DoctorID      uuid.UUID                `json:"doctor_id"`
	Date          string                   `json:"appointment_date"`
	Slot          string                   `json:"slot_time"`
	Status        entity.AppointmentStatus `json:"status"`
	Reason        string                   `json:"reason,omitempty"`
	ActorRole     string                   `json:"actor_role"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

func NewAppointmentEvent(eventType string, a *entity.Appointment, actor entity.Actor, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		Type:          eventType,
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.AppointmentDate,
		Slot:          a.SlotTime,
		Status:        a.Status,
		Reason:        a.CancelReason,
		ActorRole:     actor.Role,
		OccurredAt:    at,
	}
}

// Notifier hands an event to the delivery channel (queue, log, ...).
type Notifier interface {
	Notify(ctx context.Context, event AppointmentEvent) error
}

const notificationQueueSize = 256

// NotificationDispatcher delivers notifications after commit without blocking
// the caller. A single worker hands events to the notifier in dispatch order.
// A failed notification is logged and never undoes the state change.
type NotificationDispatcher struct {
	notifier Notifier
	log      *logrus.Logger

	queue   chan AppointmentEvent
	pending sync.WaitGroup
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewNotificationDispatcher(notifier Notifier, log *logrus.Logger) *NotificationDispatcher {
	return newNotificationDispatcher(notifier, log, notificationQueueSize)
}

func newNotificationDispatcher(notifier Notifier, log *logrus.Logger, size int) *NotificationDispatcher {
	d := &NotificationDispatcher{
		notifier: notifier,
		log:      log,
		queue:    make(chan AppointmentEvent, size),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch queues the event and returns at once. The event is dropped when the
// queue is full or the dispatcher is closed.
func (d *NotificationDispatcher) Dispatch(event AppointmentEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warnf("Dropped %s for appointment %s: dispatcher closed", event.Type, event.AppointmentID)
		return
	}

	d.pending.Add(1)
	select {
	case d.queue <- event:
	default:
		d.pending.Done()
		d.log.Warnf("Dropped %s for appointment %s: notification queue full", event.Type, event.AppointmentID)
	}
}

func (d *NotificationDispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
		d.pending.Done()
	}
}

func (d *NotificationDispatcher) deliver(event AppointmentEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := d.notifier.Notify(ctx, event); err != nil {
		d.log.Warnf("Failed to notify %s for appointment %s: %+v", event.Type, event.AppointmentID, err)
	}
}

// Wait blocks until every queued event has been handed to the notifier.
func (d *NotificationDispatcher) Wait() {
	d.pending.Wait()
}

// Close stops accepting events, drains the queue and stops the worker.
// Safe to call more than once.
func (d *NotificationDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

type logNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier is used when no message broker is configured.
func NewLogNotifier(log *logrus.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(ctx context.Context, event AppointmentEvent) error {
	n.log.WithFields(logrus.Fields{
		"event":          event.Type,
		"appointment_id": event.AppointmentID,
		"patient_id":     event.PatientID,
		"doctor_id":      event.DoctorID,
		"status":         event.Status,
	}).Info("Appointment notification")
	return nil
}

type rabbitMQNotifier struct {
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
	channel *amqp091.Channel
	queue   string
}

func NewRabbitMQNotifier(conn *amqp091.Connection, queue string) (Notifier, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &rabbitMQNotifier{
		channel: channel,
		queue:   queue,
	}, nil
}

func (n *rabbitMQNotifier) Notify(ctx context.Context, event AppointmentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Headers: amqp091.Table{
			"message_type":     "JSON",
			"requeue_strategy": "DROP",
		},
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.channel.PublishWithContext(ctx, "", n.queue, false, false, message); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
