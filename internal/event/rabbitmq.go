package event

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"game-service/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

const connectionName = "game-service"

// RabbitMQConnection holds the broker connection and the channel game events go out on.
type RabbitMQConnection struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
}

func brokerURI(cfg config.RabbitMQConfig) (amqp.URI, error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return amqp.URI{}, fmt.Errorf("invalid rabbitmq port %q: %w", cfg.Port, err)
	}
	return amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     port,
		Username: cfg.Username,
		Password: cfg.Password,
		Vhost:    "/",
	}, nil
}

func dialConfig() amqp.Config {
	return amqp.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: amqp.Table{"connection_name": connectionName},
	}
}

// ConnectRabbitMQ dials the broker under the service's connection name and opens a
// channel with GameQueue declared on it.
func ConnectRabbitMQ(cfg config.RabbitMQConfig) (*RabbitMQConnection, error) {
	uri, err := brokerURI(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(uri.String(), dialConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(GameQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", GameQueue, err)
	}

	go func(closed <-chan *amqp.Error) {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			slog.Error("RabbitMQ connection lost", "code", amqpErr.Code, "reason", amqpErr.Reason)
		}
	}(conn.NotifyClose(make(chan *amqp.Error, 1)))

	slog.Info("Connected to RabbitMQ", "host", cfg.Host, "port", cfg.Port, "queue", GameQueue)

	return &RabbitMQConnection{
		Connection: conn,
		Channel:    ch,
	}, nil
}

func (r *RabbitMQConnection) Close() error {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			slog.Error("failed to close RabbitMQ channel", "error", err)
		}
	}
	if r.Connection != nil {
		if err := r.Connection.Close(); err != nil {
			slog.Error("failed to close RabbitMQ connection", "error", err)
			return err
		}
	}
	slog.Info("RabbitMQ connection closed")
	return nil
}
