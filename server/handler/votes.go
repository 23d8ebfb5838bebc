package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/screwyprof/racer/pkg/httpkit"
	"github.com/screwyprof/racer/server/api"
	"github.com/screwyprof/racer/server/board"
	"github.com/screwyprof/racer/server/handler/bind"
)

const GetVotesRoute = http.MethodGet + " " + "/v1/votes"

// Sentinel errors
var (
	ErrQueryFailed = errors.New("failed to query votes")
)

type GetVotes struct {
	finder  board.VotesFinder
	chainID uint64
}

func NewGetVotes(finder board.VotesFinder, chainID uint64) *GetVotes {
	return &GetVotes{finder: finder, chainID: chainID}
}

func (h *GetVotes) AddRoutes(m *http.ServeMux) {
	m.Handle(GetVotesRoute, httpkit.HandlerFunc(h.GetVotes))
}

func (h *GetVotes) GetVotes(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetVotesRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	criteria, err := board.NewVotesCriteria(h.chainID, req.Placer, req.Page, req.PerPage)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	page, err := h.finder.FindVotes(r.Context(), criteria)
	if err != nil {
		return httpkit.JsonError(api.Wrap(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	if link := buildPaginationLinks(page, r.URL); link != "" {
		w.Header().Set("Link", link)
	}

	return httpkit.JSON(bind.GetVotesResponse(page.Votes))
}

// buildPaginationLinks creates a GitHub-style Link header with prev and next only
func buildPaginationLinks(page *board.VotesPage, base *url.URL) string {
	var links []string

	u := *base
	query := u.Query()
	query.Set("per_page", strconv.FormatUint(page.Size.Uint64(), 10))

	link := func(number uint64, rel string) string {
		query.Set("page", strconv.FormatUint(number, 10))
		u.RawQuery = query.Encode()
		return fmt.Sprintf(`<%s>; rel="%s"`, u.String(), rel)
	}

	if page.HasPrevious() {
		links = append(links, link(page.Number.Uint64()-1, "prev"))
	}
	if page.HasNext() {
		links = append(links, link(page.Number.Uint64()+1, "next"))
	}

	return strings.Join(links, ", ")
}
