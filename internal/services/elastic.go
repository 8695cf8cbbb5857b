package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const ProductsIndex = "products"

var ErrSearchUnavailable = errors.New("client Elasticsearch non initialisé")

// ProductIndex maintient l'index de recherche des produits.
// Un client nil désactive l'indexation ; la recherche renvoie alors ErrSearchUnavailable.
type ProductIndex struct {
	client *elasticsearch.Client
	index  string
	log    *zap.Logger
}

func NewProductIndex(client *elasticsearch.Client, log *zap.Logger) *ProductIndex {
	return &ProductIndex{client: client, index: ProductsIndex, log: log}
}

// Index écrit ou remplace le document du produit.
func (x *ProductIndex) Index(ctx context.Context, p models.Product) error {
	if x.client == nil {
		return ErrSearchUnavailable
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encodage produit: %w", err)
	}
	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elastic a refusé %s: %s", p.ID, res.Status())
	}
	x.log.Debug("✅ Produit indexé dans Elasticsearch", zap.String("id", p.ID), zap.String("name", p.Name))
	return nil
}

func (x *ProductIndex) Delete(ctx context.Context, id string) error {
	if x.client == nil {
		return ErrSearchUnavailable
	}

	req := esapi.DeleteRequest{Index: x.index, DocumentID: id, Refresh: "true"}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("suppression Elastic: %w", err)
	}
	defer res.Body.Close()

	// 404 : déjà absent de l'index
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("Elastic a refusé la suppression de %s: %s", id, res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search interroge nom, catégorie et description.
func (x *ProductIndex) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	if x.client == nil {
		return nil, ErrSearchUnavailable
	}

	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "category^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{x.index}, Body: &buf}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("recherche Elastic: %s", res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("décodage réponse Elastic: %w", err)
	}

	products := make([]models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		products = append(products, hit.Source)
	}
	return products, nil
}
