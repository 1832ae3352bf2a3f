package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"golang.org/x/sync/singleflight"

	"lajuana/internal/app/commands"
)

// IdempotentCommand is implemented by commands that may be replayed by the client.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // pointer to the handler's result type
}

type IdempotencyRecord struct {
	Key        string
	Command    string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored result of a key that already succeeded.
// Failures are not recorded: a retry after an upstream error must reach the
// provider again. Concurrent requests with the same key share one execution.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	var inFlight singleflight.Group
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			key = cmd.Key() + ":" + key
			result, err, _ := inFlight.Do(key, func() (any, error) {
				return runOnce(ctx, store, codec, nextFn, idCmd, key)
			})
			return result, err
		})
	}
}

func runOnce(ctx context.Context, store IdempotencyStore, codec ResultCodec, next commandFunc, cmd IdempotentCommand, key string) (any, error) {
	rec, found, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		proto := cmd.ResultPrototype()
		if proto == nil {
			return nil, errMissingPrototype
		}
		if err := codec.Decode(rec.Payload, proto); err != nil {
			return nil, err
		}
		return normalizePrototype(proto), nil
	}
	result, err := next(ctx, cmd)
	if err != nil {
		return nil, err
	}
	record := IdempotencyRecord{
		Key:        key,
		Command:    cmd.Key(),
		OccurredAt: time.Now().UTC(),
	}
	if result != nil {
		payload, encErr := codec.Encode(result)
		if encErr != nil {
			return nil, encErr
		}
		record.Payload = payload
	}
	if err := store.Save(ctx, record); err != nil {
		return nil, err
	}
	return result, nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
