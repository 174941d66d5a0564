package api

import (
	"context"
	"net/http"

	"github.com/bekzodm/murojaat-desk/internal/domain"
)

func (c *Client) Departments(ctx context.Context) ([]domain.Department, error) {
	var out []domain.Department
	if err := c.do(ctx, http.MethodGet, "/departments/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Neighborhoods(ctx context.Context) ([]domain.Neighborhood, error) {
	var out []domain.Neighborhood
	if err := c.do(ctx, http.MethodGet, "/neighborhoods/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TrainCorrection submits a corrected category for a misclassified appeal,
// feeding the backend's classifier.
func (c *Client) TrainCorrection(ctx context.Context, sessionUUID, correctedCategory string) error {
	body := map[string]string{
		"session_uuid":       sessionUUID,
		"corrected_category": correctedCategory,
	}
	return c.do(ctx, http.MethodPost, "/train-correction/", nil, body, nil)
}
