// Package events publishes task outcomes to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"converteasy/logger"
	"converteasy/tasks"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultTopic = "conversion-events"

type EventType string

const (
	TaskFinished EventType = "task.finished"
	TaskFailed   EventType = "task.failed"
	TaskRemoved  EventType = "task.removed"
)

// Event is the JSON payload of a published message. Messages are keyed by
// task id so that all events of a task land on the same partition.
type Event struct {
	Type      EventType       `json:"type"`
	TaskID    string          `json:"task_id"`
	Direction tasks.Direction `json:"direction"`
	State     tasks.TaskState `json:"state"`
	Input     string          `json:"input"`
	Output    string          `json:"output,omitempty"`
	Backend   string          `json:"backend,omitempty"`
	Error     string          `json:"error,omitempty"`
	Attempts  int             `json:"attempts"`
	Time      time.Time       `json:"time"`
}

// Publisher sends an Event for every terminal transition and removal.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
	now      func() time.Time
}

var _ tasks.Listener = (*Publisher)(nil)

func NewPublisher(producer sarama.SyncProducer, topic string, lg *logger.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic, logger: lg, now: time.Now}
}

// Dial creates a publisher backed by a synchronous producer that waits for
// all in-sync replicas. The client's own messages go to lg at debug level.
func Dial(brokers []string, topic string, lg *logger.Logger) (*Publisher, error) {
	sarama.Logger = saramaLogger(lg)

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("connect to kafka: %w", err)
	}

	return NewPublisher(p, topic, lg), nil
}

func saramaLogger(lg *logger.Logger) sarama.StdLogger {
	zl := lg.Zap().Named("sarama")
	std, err := zap.NewStdLogAt(zl, zapcore.DebugLevel)
	if err != nil {
		return zap.NewStdLog(zl)
	}
	return std
}

func (p *Publisher) TaskChanged(task *tasks.ConversionTask) {
	switch task.State {
	case tasks.StateFinished:
		p.publish(TaskFinished, task)
	case tasks.StateError:
		p.publish(TaskFailed, task)
	}
}

func (p *Publisher) TaskRemoved(task *tasks.ConversionTask) {
	p.publish(TaskRemoved, task)
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}

func (p *Publisher) publish(typ EventType, task *tasks.ConversionTask) {
	if err := p.send(newEvent(typ, task, p.now())); err != nil {
		p.logger.Warn("failed to publish task event", map[string]any{
			"task_id": task.ID,
			"event":   typ,
			"topic":   p.topic,
			"error":   err,
		})
	}
}

func (p *Publisher) send(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.TaskID),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = p.producer.SendMessage(msg)
	return err
}

func newEvent(typ EventType, task *tasks.ConversionTask, now time.Time) Event {
	e := Event{
		Type:      typ,
		TaskID:    task.ID,
		Direction: task.Direction,
		State:     task.State,
		Input:     task.InputRef,
		Backend:   task.Backend,
		Error:     task.Error,
		Attempts:  len(task.Attempts),
		Time:      now.UTC(),
	}
	if task.State == tasks.StateFinished {
		e.Output = task.OutputRef
	}
	return e
}
