// Package tripsit is the client for the community combination-status
// collaborator (the TripSit factsheet API). Every response passes through
// the content filter before it is decoded, so dosing, preparation and
// route-of-administration fields never reach callers.
package tripsit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/qubesight-bit/gosafe.lat-sub000/cache"
	"github.com/qubesight-bit/gosafe.lat-sub000/contentfilter"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/upstream"
)

// Collaborator is the label used in metrics and logs.
const Collaborator = "tripsit"

// ErrNotFound is returned when the collaborator has no factsheet for a name.
var ErrNotFound = errors.New("tripsit: substance not found")

// Combo is the community status of combining two substances.
type Combo struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// Drug is the filtered factsheet of one substance.
type Drug struct {
	Name         string           `json:"name"`
	PrettyName   string           `json:"pretty_name"`
	Aliases      []string         `json:"aliases,omitempty"`
	Categories   []string         `json:"categories,omitempty"`
	Summary      string           `json:"summary,omitempty"`
	Onset        string           `json:"onset,omitempty"`
	Duration     string           `json:"duration,omitempty"`
	AfterEffects string           `json:"after_effects,omitempty"`
	Combos       map[string]Combo `json:"combos,omitempty"`
}

// DisplayName prefers the pretty name.
func (d Drug) DisplayName() string {
	if d.PrettyName != "" {
		return d.PrettyName
	}
	return d.Name
}

// Getter fetches a URL and returns the body of a successful response.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Client talks to TripSit. Factsheets are memoised per canonical name when a
// memo is supplied; the name list is always fetched fresh.
type Client struct {
	baseURL string
	http    Getter
	drugs   *cache.Memo[Drug]
}

// NewClient creates a client rooted at baseURL. memo may be nil.
func NewClient(baseURL string, http Getter, memo *cache.Memo[Drug]) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		drugs:   memo,
	}
}

// NewUpstream builds the HTTP plumbing for TripSit from the shared options.
func NewUpstream(opts upstream.Options) *upstream.Client {
	opts.Name = Collaborator
	return upstream.New(opts)
}

// Drug fetches the factsheet for name.
func (c *Client) Drug(ctx context.Context, name string) (Drug, error) {
	key := names.Canonical(name)
	if key == "" {
		return Drug{}, ErrNotFound
	}

	return c.drugs.GetOrLoad(ctx, key, func(ctx context.Context) (Drug, error) {
		return c.fetchDrug(ctx, key)
	})
}

// Combos returns the combination map of name keyed by the other substance.
func (c *Client) Combos(ctx context.Context, name string) (map[string]Combo, error) {
	d, err := c.Drug(ctx, name)
	if err != nil {
		return nil, err
	}
	return d.Combos, nil
}

// AllNames returns every substance name the collaborator knows, sorted.
func (c *Client) AllNames(ctx context.Context) ([]string, error) {
	var resp envelope[[]string]
	if err := c.getJSON(ctx, "/getAllDrugNames", &resp); err != nil {
		return nil, err
	}
	if resp.failed() {
		return nil, fmt.Errorf("%s: name list request failed: %s", Collaborator, resp.Msg)
	}

	var out []string
	for _, batch := range resp.Data {
		for _, n := range batch {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (c *Client) fetchDrug(ctx context.Context, name string) (Drug, error) {
	var resp envelope[wireDrug]
	if err := c.getJSON(ctx, "/getDrug?"+url.Values{"name": {name}}.Encode(), &resp); err != nil {
		return Drug{}, err
	}
	if resp.failed() && !resp.unknownName() {
		return Drug{}, fmt.Errorf("%s: drug request for %q failed: %s", Collaborator, name, resp.Msg)
	}
	if resp.failed() || len(resp.Data) == 0 || resp.Data[0].Name == "" {
		return Drug{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return resp.Data[0].toDrug(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}

	body, err = contentfilter.Strip(body)
	if err != nil {
		return fmt.Errorf("%s: malformed response: %w", Collaborator, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: unexpected response shape: %w", Collaborator, err)
	}
	return nil
}

// envelope is the {err, msg, data} wrapper around every response. err is
// null on success and true (or a message) on failure.
type envelope[T any] struct {
	Err  json.RawMessage `json:"err"`
	Msg  string          `json:"msg"`
	Data []T             `json:"data"`
}

func (e envelope[T]) failed() bool {
	s := strings.TrimSpace(string(e.Err))
	return s != "" && s != "null" && s != "false"
}

// unknownName reports whether a failed envelope says the requested name does
// not exist, as opposed to the request itself failing.
func (e envelope[T]) unknownName() bool {
	msg := strings.ToLower(e.Msg)
	return strings.Contains(msg, "unable to find") || strings.Contains(msg, "not found")
}

type formatted struct {
	Value string `json:"value"`
	Unit  string `json:"_unit"`
}

func (f formatted) text() string {
	if f.Value == "" {
		return ""
	}
	return strings.TrimSpace(f.Value + " " + f.Unit)
}

type wireDrug struct {
	Name       string   `json:"name"`
	PrettyName string   `json:"pretty_name"`
	Aliases    []string `json:"aliases"`
	Categories []string `json:"categories"`
	Properties struct {
		Summary      string `json:"summary"`
		Onset        string `json:"onset"`
		Duration     string `json:"duration"`
		AfterEffects string `json:"after-effects"`
	} `json:"properties"`
	FormattedOnset        formatted        `json:"formatted_onset"`
	FormattedDuration     formatted        `json:"formatted_duration"`
	FormattedAftereffects formatted        `json:"formatted_aftereffects"`
	Combos                map[string]Combo `json:"combos"`
}

func (w wireDrug) toDrug() Drug {
	pick := func(text string, f formatted) string {
		if t := strings.TrimSpace(text); t != "" {
			return t
		}
		return f.text()
	}

	return Drug{
		Name:         w.Name,
		PrettyName:   w.PrettyName,
		Aliases:      w.Aliases,
		Categories:   w.Categories,
		Summary:      strings.TrimSpace(w.Properties.Summary),
		Onset:        pick(w.Properties.Onset, w.FormattedOnset),
		Duration:     pick(w.Properties.Duration, w.FormattedDuration),
		AfterEffects: pick(w.Properties.AfterEffects, w.FormattedAftereffects),
		Combos:       w.Combos,
	}
}
