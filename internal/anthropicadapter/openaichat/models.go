package openaichat

import (
	"context"
	"net/http"
	"time"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"
)

// ListModels fetches the upstream model catalog and translates it to the
// Messages API list shape.
func ListModels(ctx context.Context, baseURL string, transport http.RoundTripper) (*types.ModelList, error) {
	c, err := newClient(baseURL, transport)
	if err != nil {
		return nil, err
	}
	upstream, err := c.listModels(ctx)
	if err != nil {
		return nil, err
	}

	list := &types.ModelList{Data: make([]types.ModelInfo, 0, len(upstream.Data))}
	for _, entry := range upstream.Data {
		list.Data = append(list.Data, types.ModelInfo{
			Type:        "model",
			ID:          entry.ID,
			DisplayName: entry.ID,
			CreatedAt:   time.Unix(entry.Created, 0).UTC(),
		})
	}
	if len(list.Data) > 0 {
		list.FirstID = &list.Data[0].ID
		list.LastID = &list.Data[len(list.Data)-1].ID
	}
	return list, nil
}
