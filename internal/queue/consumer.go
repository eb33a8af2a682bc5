// Package queue contains the background consumer that listens to the
// booking.events queue and fans each event out to the configured
// notification senders (email, Telegram).
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/hostel-booking/internal/notify"
)

// Sender delivers a single booking event somewhere.  Each sender fails
// independently: one broken channel must not stop the others.
type Sender interface {
	Send(ev notify.Event) error
}

// StartConsumer connects to RabbitMQ, declares the booking.events queue
// (durable) and dispatches every message to the given senders.  It runs
// a reconnect loop with exponential backoff and keeps running through
// broker restarts; processing errors are logged and the offending
// message is rejected without requeue so the consumer never spins on a
// poison message.
func StartConsumer(senders ...Sender) error {
	url := notify.BrokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, senders); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, senders []Sender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(notify.QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(notify.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, senders); err != nil {
			log.Printf("notify-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, senders []Sender) error {
	var ev notify.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	log.Printf("notify-consumer: %s reservation=%d guest=%q total=%d", ev.Kind, ev.ReservationID, ev.GuestName, ev.TotalPrice)
	for _, s := range senders {
		if err := s.Send(ev); err != nil {
			// best effort: log and keep going, the message is still acked
			log.Printf("notify-consumer: sender %T failed for reservation %d: %v", s, ev.ReservationID, err)
		}
	}
	return nil
}
