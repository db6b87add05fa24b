// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/shadefi/shade/api/utils"
	"github.com/shadefi/shade/eventdb"
	shadeevents "github.com/shadefi/shade/events"
	"github.com/shadefi/shade/shade"
)

type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{db, limit}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req)
	if err != nil {
		return utils.BadRequest(err)
	}
	evs, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	if evs == nil {
		evs = []*shadeevents.Event{}
	}
	return utils.WriteJSON(w, evs)
}

func (e *Events) parseFilter(req *http.Request) (*eventdb.Filter, error) {
	query := req.URL.Query()
	filter := &eventdb.Filter{
		Order:   eventdb.ASC,
		Options: &eventdb.Options{Limit: e.limit},
	}

	if s := query.Get("kind"); s != "" {
		kind := shadeevents.Kind(s)
		filter.Kind = &kind
	}
	if s := query.Get("subject"); s != "" {
		subject, err := shade.ParseBytes32(s)
		if err != nil {
			return nil, errors.WithMessage(err, "subject")
		}
		filter.Subject = &subject
	}
	if s := query.Get("actor"); s != "" {
		actor, err := shade.ParseAddress(s)
		if err != nil {
			return nil, errors.WithMessage(err, "actor")
		}
		filter.Actor = &actor
	}
	from, err := parseUint(query.Get("from"), "from")
	if err != nil {
		return nil, err
	}
	to, err := parseUint(query.Get("to"), "to")
	if err != nil {
		return nil, err
	}
	if from > 0 || to > 0 {
		filter.Range = &eventdb.Range{From: from, To: to}
	}

	switch order := query.Get("order"); order {
	case "", string(eventdb.ASC):
	case string(eventdb.DESC):
		filter.Order = eventdb.DESC
	default:
		return nil, fmt.Errorf("order: unknown %q", order)
	}

	if filter.Options.Offset, err = parseUint(query.Get("offset"), "offset"); err != nil {
		return nil, err
	}
	limit, err := parseUint(query.Get("limit"), "limit")
	if err != nil {
		return nil, err
	}
	if limit > e.limit {
		return nil, fmt.Errorf("limit: exceeds maximum %d", e.limit)
	}
	if limit > 0 {
		filter.Options.Limit = limit
	}
	return filter, nil
}

func parseUint(s, name string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, name)
	}
	return v, nil
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
