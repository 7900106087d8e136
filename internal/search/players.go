package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/google/uuid"
)

var ErrSearchFailed = errors.New("search failed")

const playerMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "player_name": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "position":    {"type": "keyword"}
    }
  }
}`

// Index keeps a denormalised copy of players in Elasticsearch for fuzzy name search.
type Index struct {
	ES   *elasticsearch.Client
	Name string
}

func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.ES.Indices.Exists([]string{i.Name}, i.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.ES.Indices.Create(i.Name,
		i.ES.Indices.Create.WithContext(ctx),
		i.ES.Indices.Create.WithBody(strings.NewReader(playerMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return checkResponse(res)
}

func (i *Index) IndexPlayer(ctx context.Context, p *models.Player) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	res, err := i.ES.Index(i.Name, bytes.NewReader(body),
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index player: %w", err)
	}
	return checkResponse(res)
}

func (i *Index) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	res, err := i.ES.Delete(i.Name, id.String(), i.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res)
}

func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []models.Player, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"player_name^2", "position"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Name),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Player `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}

	players := make([]models.Player, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		players[n] = hit.Source
	}
	return r.Hits.Total.Value, players, nil
}

func checkResponse(res *esapi.Response) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch %s: %s", res.Status(), body)
	}
	return nil
}
