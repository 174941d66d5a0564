package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bekzodm/murojaat-desk/internal/domain"
)

func (c *Client) StaffProfile(ctx context.Context) (*domain.StaffProfile, error) {
	var out domain.StaffProfile
	if err := c.do(ctx, http.MethodGet, "/dashboard/staff-profile/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.do(ctx, http.MethodGet, "/dashboard/stats/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionsChart returns appeal volume bucketed for the given period
// ("week", "month", "year").
func (c *Client) SessionsChart(ctx context.Context, period string) ([]domain.ChartPoint, error) {
	query := url.Values{"period": {period}}
	var out []domain.ChartPoint
	if err := c.do(ctx, http.MethodGet, "/dashboard/sessions-chart/", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Demographics(ctx context.Context) (*domain.Demographics, error) {
	var out domain.Demographics
	if err := c.do(ctx, http.MethodGet, "/dashboard/demographics/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TopNeighborhoods(ctx context.Context) ([]domain.NeighborhoodCount, error) {
	var out []domain.NeighborhoodCount
	if err := c.do(ctx, http.MethodGet, "/dashboard/top-neighborhoods/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var out []domain.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, "/dashboard/leaderboard/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
