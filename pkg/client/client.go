package client

import (
	"context"
	"time"

	"drivebid/pkg/logger"
)

// Client bundles the external connections a service holds for its lifetime.
type Client struct {
	Mongo *MongoClient
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, connTimeout time.Duration) {
	c.Mongo = NewMongoClient(log, mongoURI, connTimeout)
}

func (c *Client) GracefulShutdown() {
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.Mongo.Client.Disconnect(ctx)
	}
}
