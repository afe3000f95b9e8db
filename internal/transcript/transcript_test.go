package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func sampleExchange() models.Exchange {
	return models.Exchange{
		ID:           "ex-1",
		ConnectionID: "conn-1",
		ModelID:      "anthropic.claude-3-haiku-20240307-v1:0",
		Provider:     "bedrock",
		Prompt:       "hello",
		Response:     "hi there",
		StopReason:   "end_turn",
		Fragments:    2,
		StartedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
	}
}

type fakeStream struct {
	added  []*redis.XAddArgs
	acked  []string
	addErr error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", f.addErr)
}

func (f *fakeStream) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("", errors.New("BUSYGROUP Consumer Group name already exists"))
}

func (f *fakeStream) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
}

func (f *fakeStream) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func TestRedisRecorder_Record(t *testing.T) {
	fake := &fakeStream{}
	r := &RedisRecorder{client: fake, stream: "prompt-exchanges", maxLen: 1000}

	if err := r.Record(context.Background(), sampleExchange()); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if len(fake.added) != 1 {
		t.Fatalf("Expected 1 XADD, got %d", len(fake.added))
	}
	args := fake.added[0]
	if args.Stream != "prompt-exchanges" || args.MaxLen != 1000 || !args.Approx {
		t.Errorf("Unexpected XADD args: %+v", args)
	}

	values := args.Values.(map[string]any)
	var decoded models.Exchange
	if err := json.Unmarshal([]byte(values[payloadField].(string)), &decoded); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}
	want := sampleExchange()
	if decoded.ID != want.ID || decoded.Response != want.Response || decoded.Fragments != want.Fragments {
		t.Errorf("Payload mismatch: %+v", decoded)
	}
	if !decoded.StartedAt.Equal(want.StartedAt) || decoded.Duration != want.Duration {
		t.Errorf("Timing mismatch: %v %v", decoded.StartedAt, decoded.Duration)
	}
}

func TestRedisRecorder_RecordError(t *testing.T) {
	fake := &fakeStream{addErr: errors.New("READONLY")}
	r := &RedisRecorder{client: fake, stream: "s"}

	if err := r.Record(context.Background(), sampleExchange()); err == nil {
		t.Error("Expected error from XADD")
	}
	if fake.added[0].MaxLen != 0 {
		t.Error("Expected no MAXLEN when maxLen is 0")
	}
}

func TestConsumer_Setup_IgnoresBusyGroup(t *testing.T) {
	c := &Consumer{client: &fakeStream{}, stream: "s", groupID: "g", logger: newTestLogger()}
	if err := c.Setup(context.Background()); err != nil {
		t.Errorf("Expected BUSYGROUP to be ignored, got %v", err)
	}
}

func TestConsumer_Process(t *testing.T) {
	payload, _ := json.Marshal(sampleExchange())

	tests := []struct {
		name       string
		values     map[string]any
		handlerErr error
		wantCalled bool
		wantAck    bool
	}{
		{"valid", map[string]any{payloadField: string(payload)}, nil, true, true},
		{"missing payload", map[string]any{"other": "x"}, nil, false, true},
		{"bad json", map[string]any{payloadField: "{"}, nil, false, true},
		{"handler failure", map[string]any{payloadField: string(payload)}, errors.New("boom"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeStream{}
			called := false
			c := &Consumer{
				client:  fake,
				stream:  "s",
				groupID: "g",
				logger:  newTestLogger(),
				handler: func(ctx context.Context, e models.Exchange) error {
					called = true
					if e.ID != "ex-1" {
						t.Errorf("Expected exchange ex-1, got %s", e.ID)
					}
					return tt.handlerErr
				},
			}

			c.process(context.Background(), redis.XMessage{ID: "1-0", Values: tt.values})

			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if acked := len(fake.acked) == 1; acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", acked, tt.wantAck)
			}
		})
	}
}

func TestConsumer_StartStopsOnCancel(t *testing.T) {
	c := &Consumer{client: &fakeStream{}, stream: "s", groupID: "g", logger: newTestLogger()}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := c.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

type fakeExec struct {
	sql  string
	args []any
}

func (f *fakeExec) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = arguments
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresRecorder_Record(t *testing.T) {
	db := &fakeExec{}
	p := &PostgresRecorder{db: db}

	if err := p.Record(context.Background(), sampleExchange()); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if db.sql != insertExchangeSQL {
		t.Errorf("Unexpected SQL: %s", db.sql)
	}
	if len(db.args) != 11 {
		t.Fatalf("Expected 11 arguments, got %d", len(db.args))
	}
	if db.args[10] != int64(1500) {
		t.Errorf("Expected duration 1500ms, got %v", db.args[10])
	}
	if db.args[8] != (*string)(nil) {
		t.Errorf("Expected NULL error column, got %v", db.args[8])
	}
}

func TestNewRecorder_Providers(t *testing.T) {
	ctx := context.Background()

	r, err := NewRecorder(ctx, Config{}, newTestLogger())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := r.(NopRecorder); !ok {
		t.Errorf("Expected NopRecorder, got %T", r)
	}

	if _, err := NewRecorder(ctx, Config{Provider: "redis"}, newTestLogger()); err == nil {
		t.Error("Expected error for redis without address")
	}
	if _, err := NewRecorder(ctx, Config{Provider: "postgres"}, newTestLogger()); err == nil {
		t.Error("Expected error for postgres without dsn")
	}
	if _, err := NewRecorder(ctx, Config{Provider: "kafka"}, newTestLogger()); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}
