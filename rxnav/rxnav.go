// Package rxnav is the client for the pharmaceutical interaction
// collaborator (the RxNav REST API). It resolves free-text names to
// concept IDs and fetches documented interactions between two IDs.
package rxnav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/qubesight-bit/gosafe.lat-sub000/cache"
	"github.com/qubesight-bit/gosafe.lat-sub000/names"
	"github.com/qubesight-bit/gosafe.lat-sub000/upstream"
)

// Collaborator is the label used in metrics and logs.
const Collaborator = "rxnav"

type ResolutionStatus string

const (
	Resolved   ResolutionStatus = "resolved"
	Unresolved ResolutionStatus = "unresolved"
)

// Resolution is the outcome of resolving one name.
type Resolution struct {
	Status ResolutionStatus `json:"status"`
	ID     string           `json:"id,omitempty"`
}

func (r Resolution) IsResolved() bool {
	return r.Status == Resolved && r.ID != ""
}

type SetStatus string

const (
	Found SetStatus = "found"
	Empty SetStatus = "empty"
)

// Pair is one documented interaction between the two requested concepts.
type Pair struct {
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
}

// InteractionSet is the outcome of an interaction fetch. Empty means both
// concepts are known and nothing is documented between them.
type InteractionSet struct {
	Status SetStatus `json:"status"`
	Pairs  []Pair    `json:"pairs,omitempty"`
}

// Getter fetches a URL and returns the body of a successful response.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Client talks to RxNav. Resolutions are memoised per canonical name when
// a memo is supplied.
type Client struct {
	baseURL     string
	http        Getter
	resolutions *cache.Memo[Resolution]
}

// NewClient creates a client rooted at baseURL. memo may be nil.
func NewClient(baseURL string, http Getter, memo *cache.Memo[Resolution]) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        http,
		resolutions: memo,
	}
}

// Resolve maps a free-text name to a concept ID. An exact match is tried
// first, then RxNav's normalized string match. A name matching nothing is
// Unresolved, not an error.
func (c *Client) Resolve(ctx context.Context, name string) (Resolution, error) {
	key := names.Canonical(name)
	if key == "" {
		return Resolution{Status: Unresolved}, nil
	}

	return c.resolutions.GetOrLoad(ctx, key, func(ctx context.Context) (Resolution, error) {
		return c.resolve(ctx, key)
	})
}

func (c *Client) resolve(ctx context.Context, name string) (Resolution, error) {
	// search=0 exact, search=2 normalized
	for _, search := range []string{"0", "2"} {
		q := url.Values{}
		q.Set("name", name)
		q.Set("search", search)

		var resp rxcuiResponse
		if err := c.getJSON(ctx, "/REST/rxcui.json?"+q.Encode(), &resp); err != nil {
			return Resolution{}, err
		}

		for _, id := range resp.IDGroup.RxNormID {
			if id != "" {
				return Resolution{Status: Resolved, ID: id}, nil
			}
		}
	}

	return Resolution{Status: Unresolved}, nil
}

// Interactions fetches the documented interactions between two concept IDs.
func (c *Client) Interactions(ctx context.Context, ids [2]string) (InteractionSet, error) {
	if ids[0] == "" || ids[1] == "" {
		return InteractionSet{}, fmt.Errorf("%s: interaction fetch needs two concept IDs, got %q", Collaborator, ids)
	}

	path := "/REST/interaction/list.json?rxcuis=" + url.QueryEscape(ids[0]) + "+" + url.QueryEscape(ids[1])

	var resp interactionResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return InteractionSet{}, err
	}

	var pairs []Pair
	for _, group := range resp.FullInteractionTypeGroup {
		for _, typ := range group.FullInteractionType {
			for _, p := range typ.InteractionPair {
				pairs = append(pairs, Pair{
					Severity:    p.Severity,
					Description: strings.TrimSpace(p.Description),
					Source:      group.SourceName,
				})
			}
		}
	}

	if len(pairs) == 0 {
		return InteractionSet{Status: Empty}, nil
	}
	return InteractionSet{Status: Found, Pairs: pairs}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: malformed response: %w", Collaborator, err)
	}
	return nil
}

type rxcuiResponse struct {
	IDGroup struct {
		RxNormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

type interactionResponse struct {
	FullInteractionTypeGroup []struct {
		SourceName          string `json:"sourceName"`
		FullInteractionType []struct {
			InteractionPair []struct {
				Severity    string `json:"severity"`
				Description string `json:"description"`
			} `json:"interactionPair"`
		} `json:"fullInteractionType"`
	} `json:"fullInteractionTypeGroup"`
}

// NewUpstream builds the HTTP plumbing for RxNav from the shared options.
func NewUpstream(opts upstream.Options) *upstream.Client {
	opts.Name = Collaborator
	return upstream.New(opts)
}
