// Package redisstore implements session.Store on top of Redis hashes,
// keyed by session and run ID, using github.com/redis/go-redis/v9.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentbackplane/abp/session"
	"github.com/redis/go-redis/v9"
)

// Store is a session.Store backed by a Redis client. Each session is an
// HSET at key "abp:session:{id}"; each run is an HSET at key
// "abp:run:{id}"; a session's run IDs are tracked in a set at
// "abp:session:{id}:runs" for ListRunsBySession.
type Store struct {
	client *redis.Client
}

// New wraps an existing *redis.Client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func sessionKey(id string) string { return "abp:session:" + id }
func runKey(id string) string     { return "abp:run:" + id }
func sessionRunsKey(id string) string { return "abp:session:" + id + ":runs" }

// CreateSession creates sessionID if absent, or returns the existing record
// if it is still active. Returns session.ErrSessionEnded if the session
// already exists but has ended.
func (s *Store) CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (session.Session, error) {
	existing, err := s.LoadSession(ctx, sessionID)
	switch err {
	case nil:
		if existing.Status == session.StatusEnded {
			return session.Session{}, session.ErrSessionEnded
		}
		return existing, nil
	case session.ErrSessionNotFound:
		// fall through to create
	default:
		return session.Session{}, err
	}

	sess := session.Session{ID: sessionID, Status: session.StatusActive, CreatedAt: createdAt}
	if err := s.client.HSet(ctx, sessionKey(sessionID), map[string]any{
		"id":         sess.ID,
		"status":     string(sess.Status),
		"created_at": sess.CreatedAt.Format(time.RFC3339Nano),
	}).Err(); err != nil {
		return session.Session{}, fmt.Errorf("redisstore: create session: %w", err)
	}
	return sess, nil
}

// LoadSession returns session.ErrSessionNotFound if sessionID is unknown.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (session.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return session.Session{}, fmt.Errorf("redisstore: load session: %w", err)
	}
	if len(fields) == 0 {
		return session.Session{}, session.ErrSessionNotFound
	}
	sess := session.Session{ID: fields["id"], Status: session.Status(fields["status"])}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return session.Session{}, fmt.Errorf("redisstore: parse created_at: %w", err)
	}
	if endedAt, ok := fields["ended_at"]; ok && endedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return session.Session{}, fmt.Errorf("redisstore: parse ended_at: %w", err)
		}
		sess.EndedAt = &t
	}
	return sess, nil
}

// EndSession marks sessionID terminal. Idempotent: ending an already-ended
// session returns its existing terminal state.
func (s *Store) EndSession(ctx context.Context, sessionID string, endedAt time.Time) (session.Session, error) {
	sess, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Status == session.StatusEnded {
		return sess, nil
	}
	endedAtCopy := endedAt
	sess.Status = session.StatusEnded
	sess.EndedAt = &endedAtCopy
	if err := s.client.HSet(ctx, sessionKey(sessionID), map[string]any{
		"status":   string(sess.Status),
		"ended_at": endedAtCopy.Format(time.RFC3339Nano),
	}).Err(); err != nil {
		return session.Session{}, fmt.Errorf("redisstore: end session: %w", err)
	}
	return sess, nil
}

// UpsertRun inserts or replaces run's metadata record and tracks it under
// its session's run set.
func (s *Store) UpsertRun(ctx context.Context, run session.RunMeta) error {
	labels, err := json.Marshal(run.Labels)
	if err != nil {
		return fmt.Errorf("redisstore: marshal labels: %w", err)
	}
	if err := s.client.HSet(ctx, runKey(run.RunID), map[string]any{
		"run_id":     run.RunID,
		"session_id": run.SessionID,
		"backend_id": run.BackendID,
		"status":     string(run.Status),
		"started_at": run.StartedAt.Format(time.RFC3339Nano),
		"updated_at": run.UpdatedAt.Format(time.RFC3339Nano),
		"labels":     string(labels),
	}).Err(); err != nil {
		return fmt.Errorf("redisstore: upsert run: %w", err)
	}
	if run.SessionID != "" {
		if err := s.client.SAdd(ctx, sessionRunsKey(run.SessionID), run.RunID).Err(); err != nil {
			return fmt.Errorf("redisstore: index run under session: %w", err)
		}
	}
	return nil
}

// LoadRun returns session.ErrRunNotFound if runID is unknown.
func (s *Store) LoadRun(ctx context.Context, runID string) (session.RunMeta, error) {
	fields, err := s.client.HGetAll(ctx, runKey(runID)).Result()
	if err != nil {
		return session.RunMeta{}, fmt.Errorf("redisstore: load run: %w", err)
	}
	if len(fields) == 0 {
		return session.RunMeta{}, session.ErrRunNotFound
	}
	return parseRunMeta(fields)
}

// ListRunsBySession lists every run indexed under sessionID, optionally
// filtered to statuses.
func (s *Store) ListRunsBySession(ctx context.Context, sessionID string, statuses []session.RunStatus) ([]session.RunMeta, error) {
	runIDs, err := s.client.SMembers(ctx, sessionRunsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list session runs: %w", err)
	}
	allow := make(map[session.RunStatus]bool, len(statuses))
	for _, st := range statuses {
		allow[st] = true
	}
	var out []session.RunMeta
	for _, id := range runIDs {
		run, err := s.LoadRun(ctx, id)
		if err != nil {
			continue
		}
		if len(allow) > 0 && !allow[run.Status] {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

func parseRunMeta(fields map[string]string) (session.RunMeta, error) {
	run := session.RunMeta{
		RunID:     fields["run_id"],
		SessionID: fields["session_id"],
		BackendID: fields["backend_id"],
		Status:    session.RunStatus(fields["status"]),
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, fields["started_at"]); err != nil {
		return session.RunMeta{}, fmt.Errorf("redisstore: parse started_at: %w", err)
	}
	if run.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return session.RunMeta{}, fmt.Errorf("redisstore: parse updated_at: %w", err)
	}
	if labels := fields["labels"]; labels != "" {
		if err := json.Unmarshal([]byte(labels), &run.Labels); err != nil {
			return session.RunMeta{}, fmt.Errorf("redisstore: parse labels: %w", err)
		}
	}
	return run, nil
}
