package windows

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/cleancharge/core/audit"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/core/window"
)

// parseRequest reads region, from, to, duration and the selector overrides.
func (h *Handler) parseRequest(r *http.Request) (planner.Request, error) {
	v := r.URL.Query()
	req := planner.Request{Region: v.Get("region"), Duration: h.defaults.Duration}
	var err error
	if req.From, err = parseTime("from", v.Get("from")); err != nil {
		return req, err
	}
	if req.To, err = parseTime("to", v.Get("to")); err != nil {
		return req, err
	}
	if s := v.Get("duration"); s != "" {
		if req.Duration, err = parseDuration(s); err != nil {
			return req, fmt.Errorf("duration: %w", err)
		}
	}
	if req.Duration == 0 {
		return req, fmt.Errorf("duration is required")
	}

	opts := h.defaults.Options
	overridden := false
	if s := v.Get("granularity"); s != "" {
		if opts.Granularity, err = parseDuration(s); err != nil {
			return req, fmt.Errorf("granularity: %w", err)
		}
		overridden = true
	}
	if s := v.Get("tie_break"); s != "" {
		if opts.TieBreak, err = window.ParseTieBreak(s); err != nil {
			return req, err
		}
		overridden = true
	}
	if s := v.Get("partial_edges"); s != "" {
		allow, err := strconv.ParseBool(s)
		if err != nil {
			return req, fmt.Errorf("partial_edges: %w", err)
		}
		opts.PartialEdges = window.PartialEdgesFrom(allow)
		overridden = true
	}
	if s := v.Get("epsilon"); s != "" {
		if opts.Epsilon, err = strconv.ParseFloat(s, 64); err != nil {
			return req, fmt.Errorf("epsilon: %w", err)
		}
		overridden = true
	}
	if overridden {
		req.Options = &opts
	}
	return req, nil
}

// parseDuration accepts Go durations ("90m", "1h30m") and bare minutes ("90").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(s)
}

func parseTime(name, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected RFC 3339 timestamp: %w", name, err)
	}
	return t.UTC(), nil
}

func parseThreshold(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("threshold is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("threshold: %w", err)
	}
	return v, nil
}

func parseHistoryQuery(r *http.Request) (audit.Query, error) {
	v := r.URL.Query()
	q := audit.Query{Region: strings.ToLower(strings.TrimSpace(v.Get("region"))), Mode: v.Get("mode")}
	var err error
	if q.Start, err = parseTime("start", v.Get("start")); err != nil {
		return q, err
	}
	if q.End, err = parseTime("end", v.Get("end")); err != nil {
		return q, err
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil || q.Limit < 0 {
			return q, fmt.Errorf("limit must be a non-negative integer")
		}
	}
	return q, nil
}
