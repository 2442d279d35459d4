package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diagnosis/travel-reservations/pkg/client"
)

// Builtins returns the functions every runner starts with.
func Builtins() map[string]Func {
	return map[string]Func{
		"greet":     greet,
		"uppercase": uppercase,
	}
}

func greet(_ context.Context, params map[string]any) (any, error) {
	name, err := requireString(params, "name")
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": fmt.Sprintf("Hola, %s!", name)}, nil
}

func uppercase(_ context.Context, params map[string]any) (any, error) {
	msg, ok := params["message"]
	if !ok || msg == nil {
		return nil, fmt.Errorf("message is required")
	}
	return map[string]any{"result": strings.ToUpper(fmt.Sprint(msg))}, nil
}

func requireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%s is required", key)
	}
	s := fmt.Sprint(v)
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// ReservationFunctions exposes the reservations API to function nodes.
// List results are stored as {"result": [...], "count": n}; the others as
// {"result": "<message>"}.
func ReservationFunctions(c *client.Client) map[string]Func {
	return map[string]Func{
		"listFlights": func(ctx context.Context, _ map[string]any) (any, error) {
			flights, err := c.ListFlights(ctx)
			if err != nil {
				return nil, err
			}
			return listResult(flights, len(flights))
		},
		"listHotels": func(ctx context.Context, _ map[string]any) (any, error) {
			hotels, err := c.ListHotels(ctx)
			if err != nil {
				return nil, err
			}
			return listResult(hotels, len(hotels))
		},
		"reserveFlight": func(ctx context.Context, _ map[string]any) (any, error) {
			msg, err := c.ReserveFlight(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"result": msg.Message}, nil
		},
		"reserveHotel": func(ctx context.Context, _ map[string]any) (any, error) {
			msg, err := c.ReserveHotel(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"result": msg.Message}, nil
		},
		"cancelFlight": func(ctx context.Context, params map[string]any) (any, error) {
			id, err := requireString(params, "id")
			if err != nil {
				return nil, err
			}
			msg, err := c.CancelFlight(ctx, id)
			if err != nil {
				return nil, err
			}
			return map[string]any{"result": msg.Message}, nil
		},
		"cancelHotel": func(ctx context.Context, params map[string]any) (any, error) {
			id, err := requireString(params, "id")
			if err != nil {
				return nil, err
			}
			msg, err := c.CancelHotel(ctx, id)
			if err != nil {
				return nil, err
			}
			return map[string]any{"result": msg.Message}, nil
		},
	}
}

// listResult converts typed records into plain maps so ${node.result}
// interpolation can render them.
func listResult(v any, n int) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var items []any
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return map[string]any{"result": items, "count": n}, nil
}
