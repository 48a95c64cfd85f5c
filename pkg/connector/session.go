package connector

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 30 * time.Second

// Session is a live client scoped to one target database. Obtain one through
// Connect or WithSession and always release it with Close.
type Session struct {
	client   *mongo.Client
	database string
}

// BuildURI assembles a connection string from the target. An explicit URI
// wins; otherwise the string is built from host, port and credentials, with
// Atlas hosts switched to the SRV scheme (which carries no port).
func BuildURI(target Target) string {
	if target.URI != "" {
		return target.URI
	}

	port := "27017"
	if target.Port != nil && *target.Port != "" {
		port = *target.Port
	}

	isSRV := strings.Contains(target.Host, ".mongodb.net")
	protocol := "mongodb"
	if isSRV {
		protocol = "mongodb+srv"
	}

	if target.Username != nil && *target.Username != "" {
		// URL encode credentials to handle special characters
		encodedUsername := url.QueryEscape(*target.Username)
		encodedPassword := ""
		if target.Password != nil {
			encodedPassword = url.QueryEscape(*target.Password)
		}

		if isSRV {
			return fmt.Sprintf("%s://%s:%s@%s/%s",
				protocol, encodedUsername, encodedPassword, target.Host, target.Database)
		}
		return fmt.Sprintf("%s://%s:%s@%s:%s/%s",
			protocol, encodedUsername, encodedPassword, target.Host, port, target.Database)
	}

	if isSRV {
		return fmt.Sprintf("%s://%s/%s", protocol, target.Host, target.Database)
	}
	return fmt.Sprintf("%s://%s:%s/%s", protocol, target.Host, port, target.Database)
}

// Connect dials the target and verifies the connection with a ping.
func Connect(ctx context.Context, target Target) (*Session, error) {
	uri := BuildURI(target)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if derr := client.Disconnect(context.Background()); derr != nil {
			log.Printf("Session -> Connect -> Error disconnecting after failed ping: %v", derr)
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	return &Session{client: client, database: target.Database}, nil
}

// Close releases the session's client. Safe to call once per session.
func (s *Session) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %v", err)
	}
	return nil
}

// Collection returns the operation surface for a named collection in the
// session's database.
func (s *Session) Collection(name string) Collection {
	return NewCollection(s.client.Database(s.database).Collection(name))
}

// ListCollectionNames lists the collections of the session's database.
func (s *Session) ListCollectionNames(ctx context.Context) ([]string, error) {
	names, err := s.client.Database(s.database).ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %v", err)
	}
	return names, nil
}

// WithSession runs fn against a freshly connected session and disconnects
// exactly once when fn returns, whatever the outcome. Every request acquires
// and releases its own client here, so no connection outlives its request.
func WithSession(ctx context.Context, target Target, fn func(s *Session) error) error {
	session, err := Connect(ctx, target)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(context.Background()); cerr != nil {
			log.Printf("Session -> WithSession -> Error closing session: %v", cerr)
		}
	}()

	return fn(session)
}
