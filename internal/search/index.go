package search

import (
	"context"
	"errors"

	"github.com/qdrant/go-client/qdrant"
)

const storiesCollection = "stories"

// Index holds story embeddings in qdrant for history search.
type Index struct {
	qdrant *qdrant.Client
}

func NewIndex(client *qdrant.Client) *Index {
	return &Index{qdrant: client}
}

func (i *Index) UpsertStory(ctx context.Context, storyID string, embedding []float32) error {
	if i.qdrant == nil {
		return errors.New("qdrant client not configured")
	}

	_, err := i.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: storiesCollection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(storyID),
				Vectors: qdrant.NewVectors(embedding...),
			},
		},
	})
	return err
}

// Search returns story IDs nearest the query embedding, best match first.
func (i *Index) Search(ctx context.Context, embedding []float32, limit int) ([]string, error) {
	if i.qdrant == nil {
		return nil, errors.New("qdrant client not configured")
	}

	results, err := i.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: storiesCollection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Id != nil {
			if uuid := r.Id.GetUuid(); uuid != "" {
				ids = append(ids, uuid)
			}
		}
	}
	return ids, nil
}

func (i *Index) DeleteStory(ctx context.Context, storyID string) error {
	if i.qdrant == nil {
		return errors.New("qdrant client not configured")
	}

	_, err := i.qdrant.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: storiesCollection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(storyID)),
	})
	return err
}
