package bind

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/screwyprof/racer/server/api"
	"github.com/screwyprof/racer/server/board"
)

// Sentinel errors for request binding
var (
	ErrInvalidPage    = errors.New("invalid page parameter")
	ErrInvalidPerPage = errors.New("invalid per_page parameter")

	ErrNotNumeric  = errors.New("must be numeric")
	ErrNotPositive = errors.New("must be positive")
)

// GetVotesRequest binds query parameters to a VotesRequest with defaults
func GetVotesRequest(r *http.Request) (api.VotesRequest, error) {
	req := api.VotesRequest{
		Page:    board.DefaultPage,
		PerPage: board.DefaultPerPage,
	}

	query := r.URL.Query()
	req.Placer = query.Get("placer")

	if param := query.Get("page"); param != "" {
		page, err := parsePositive(param)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		req.Page = page
	}

	if param := query.Get("per_page"); param != "" {
		perPage, err := parsePositive(param)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		req.PerPage = perPage
	}

	return req, nil
}

func parsePositive(param string) (uint64, error) {
	n, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	if n == 0 {
		return 0, ErrNotPositive
	}
	return n, nil
}

// GetVotesResponse binds domain votes to the API response format
func GetVotesResponse(votes []board.Vote) api.VotesResponse {
	data := make([]api.Vote, len(votes))
	for i, v := range votes {
		data[i] = api.Vote{
			ID:        v.ID.String(),
			CycleID:   v.CycleID.String(),
			Block:     strconv.FormatUint(v.BlockNumber, 10),
			Placer:    v.Placer,
			Emoji:     board.Emoji(v.Symbol),
			Amount:    v.Amount.String(),
			Placement: v.Placement.String(),
			Claimed:   v.Claimed,
		}
		if v.Reward.Valid {
			reward := v.Reward.Decimal.String()
			data[i].Reward = &reward
		}
	}

	return api.VotesResponse{Data: data}
}
