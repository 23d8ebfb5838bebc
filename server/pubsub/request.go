package pubsub

import (
	"encoding/json"
	"fmt"

	"github.com/screwyprof/racer/server/api"
)

// Request is a parsed subscription request
type Request struct {
	Address *string
	Topics  []Topic // distinct, in request order
}

// ParseRequest decodes a client message. A missing subscription list means no topics.
func ParseRequest(data []byte) (Request, error) {
	var raw api.SubscribeRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("invalid subscription request: %w", err)
	}

	req := Request{Address: raw.Address}
	seen := make(map[Topic]bool, len(raw.Subscriptions))
	for _, s := range raw.Subscriptions {
		t, err := ParseTopic(s)
		if err != nil {
			return Request{}, err
		}
		if !seen[t] {
			seen[t] = true
			req.Topics = append(req.Topics, t)
		}
	}
	return req, nil
}
