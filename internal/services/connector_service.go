package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"mongobridge/config"
	"mongobridge/internal/apis/dtos"
	"mongobridge/internal/constants"
	"mongobridge/internal/models"
	"mongobridge/internal/repositories"
	"mongobridge/internal/utils"
	"mongobridge/pkg/connector"
	"mongobridge/pkg/redis"

	"github.com/google/uuid"
)

// ErrCollectionNotFound is returned when a non-insert operation targets a
// collection the database does not have.
var ErrCollectionNotFound = errors.New("collection not found")

type ConnectorService interface {
	Execute(ctx context.Context, req *dtos.ExecuteRequest) (*dtos.ExecuteResponse, uint32, error)
	Ping(ctx context.Context, target connector.Target) (*dtos.PingResponse, uint32, error)
	Logs(limit int) ([]models.ExecutionLog, uint32, error)
}

const (
	defaultLogEntries = 50
	maxLogEntries     = 200
)

type connectorService struct {
	redisRepo redis.IRedisRepositories
	auditRepo repositories.ExecutionLogRepository // nil when auditing is disabled
}

func NewConnectorService(redisRepo redis.IRedisRepositories, auditRepo repositories.ExecutionLogRepository) ConnectorService {
	if redisRepo == nil {
		log.Fatal("Redis repository cannot be nil")
	}
	return &connectorService{
		redisRepo: redisRepo,
		auditRepo: auditRepo,
	}
}

// Execute runs one operation for a batch of items against the target
// deployment. The operation name is resolved before any session is acquired,
// so an unknown operation never costs a connection. The session itself lives
// exactly as long as the dispatch.
func (s *connectorService) Execute(ctx context.Context, req *dtos.ExecuteRequest) (*dtos.ExecuteResponse, uint32, error) {
	op, err := connector.ParseOperation(req.Operation)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	items := make([]connector.Item, len(req.Items))
	for i, record := range req.Items {
		items[i] = connector.Item{JSON: record, PairedItem: i}
	}

	invocationID := uuid.NewString()
	log.Printf("ConnectorService -> Execute -> %s on %s.%s (%d items, invocation %s)",
		op, req.Target.Database, req.Collection, len(items), invocationID)

	start := time.Now()
	var out []connector.Item
	err = connector.WithSession(ctx, req.Target, func(sess *connector.Session) error {
		// Insert is exempt: writing to a new collection creates it.
		if op != connector.OpInsert {
			if checkErr := s.verifyCollectionExists(ctx, sess, req.Target, req.Collection); checkErr != nil {
				if req.ContinueOnFail {
					out = []connector.Item{{
						JSON:       map[string]interface{}{"error": checkErr.Error()},
						PairedItem: 0,
					}}
					return nil
				}
				return checkErr
			}
		}

		result, execErr := connector.Execute(ctx, sess.Collection(req.Collection), op, req.Params, items, req.ContinueOnFail)
		if execErr != nil {
			return execErr
		}
		out = result

		// A successful insert may have created the collection, so the
		// cached name list for this target is stale.
		if op == connector.OpInsert {
			s.invalidateCollectionCache(ctx, req.Target)
		}
		return nil
	})

	s.audit(invocationID, req, op, out, err, time.Since(start))

	if err != nil {
		return nil, statusForError(err), err
	}

	return &dtos.ExecuteResponse{
		InvocationID: invocationID,
		Operation:    op.String(),
		Collection:   req.Collection,
		Items:        out,
	}, http.StatusOK, nil
}

// Ping verifies the target is reachable and reports its collections.
func (s *connectorService) Ping(ctx context.Context, target connector.Target) (*dtos.PingResponse, uint32, error) {
	var names []string
	err := connector.WithSession(ctx, target, func(sess *connector.Session) error {
		listed, listErr := sess.ListCollectionNames(ctx)
		if listErr != nil {
			return listErr
		}
		names = listed
		return nil
	})
	if err != nil {
		return nil, http.StatusBadGateway, err
	}

	return &dtos.PingResponse{Reachable: true, Collections: names}, http.StatusOK, nil
}

// Logs returns the most recent invocation audit entries.
func (s *connectorService) Logs(limit int) ([]models.ExecutionLog, uint32, error) {
	if s.auditRepo == nil {
		return nil, http.StatusNotImplemented, errors.New("audit logging is disabled")
	}
	if limit <= 0 || limit > maxLogEntries {
		limit = defaultLogEntries
	}

	entries, err := s.auditRepo.ListRecent(limit)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return entries, http.StatusOK, nil
}

// verifyCollectionExists rejects reads and updates aimed at a collection the
// target does not have, the common symptom of a typo in the collection name.
// The list is cached in Redis so repeated invocations against the same target
// do not pay a listCollections round trip each time.
func (s *connectorService) verifyCollectionExists(ctx context.Context, sess *connector.Session, target connector.Target, collection string) error {
	names, err := s.collectionNames(ctx, sess, target)
	if err != nil {
		return err
	}
	return ensureCollectionKnown(names, collection, target.Database)
}

func ensureCollectionKnown(names []string, collection, database string) error {
	for _, name := range names {
		if name == collection {
			return nil
		}
	}
	return fmt.Errorf("%w: %q in database %q", ErrCollectionNotFound, collection, database)
}

func collectionCacheKey(target connector.Target) string {
	return constants.CollectionCacheKeyPrefix + utils.MD5Hash(connector.BuildURI(target))
}

func (s *connectorService) invalidateCollectionCache(ctx context.Context, target connector.Target) {
	if err := s.redisRepo.Del(collectionCacheKey(target), ctx); err != nil {
		log.Printf("ConnectorService -> invalidateCollectionCache -> Error deleting cached collection names: %v", err)
	}
}

func (s *connectorService) collectionNames(ctx context.Context, sess *connector.Session, target connector.Target) ([]string, error) {
	cacheKey := collectionCacheKey(target)

	if cached, err := s.redisRepo.Get(cacheKey, ctx); err == nil {
		var names []string
		if err := json.Unmarshal([]byte(cached), &names); err == nil {
			return names, nil
		}
	}

	names, err := sess.ListCollectionNames(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(names); err == nil {
		ttl := time.Duration(config.Env.CollectionCacheTTLSeconds) * time.Second
		if err := s.redisRepo.Set(cacheKey, data, ttl, ctx); err != nil {
			log.Printf("ConnectorService -> collectionNames -> Error caching collection names: %v", err)
		}
	}

	return names, nil
}

func (s *connectorService) audit(invocationID string, req *dtos.ExecuteRequest, op connector.Operation, out []connector.Item, execErr error, elapsed time.Duration) {
	if s.auditRepo == nil {
		return
	}

	entry := &models.ExecutionLog{
		ID:             invocationID,
		Operation:      op.String(),
		Database:       req.Target.Database,
		Collection:     req.Collection,
		ItemsIn:        len(req.Items),
		ItemsOut:       len(out),
		Failed:         execErr != nil,
		DurationMillis: elapsed.Milliseconds(),
		CreatedAt:      time.Now(),
	}
	if execErr != nil {
		entry.Error = execErr.Error()
	}

	if err := s.auditRepo.Save(entry); err != nil {
		log.Printf("ConnectorService -> audit -> Error saving execution log: %v", err)
	}
}

func statusForError(err error) uint32 {
	var parseErr *connector.ParseError
	var idErr *connector.IdentifierError

	switch {
	case errors.As(err, &parseErr),
		errors.As(err, &idErr),
		errors.Is(err, connector.ErrEmptySort),
		errors.Is(err, connector.ErrUnsupportedOperation):
		return http.StatusBadRequest
	case errors.Is(err, ErrCollectionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
