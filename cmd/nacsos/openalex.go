package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nacsos-data/nacsos-core/internal/model"
)

// openAlexConf is the polite-pool client config spec §6's
// "--openalex-conf" flag points at: an email (OpenAlex's polite pool
// requires one to relax rate limits) and an optional API key.
type openAlexConf struct {
	Email  string `toml:"email"`
	APIKey string `toml:"api_key"`
}

func loadOpenAlexConf(path string) (openAlexConf, error) {
	var c openAlexConf
	if path == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("openalex-conf: %w", err)
	}
	return c, nil
}

type openAlexWork struct {
	ID               string `json:"id"`
	DOI              string `json:"doi"`
	Title            string `json:"title"`
	PublicationYear  int    `json:"publication_year"`
	PrimaryLocation  struct {
		Source struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
	Authorships []struct {
		Author struct {
			DisplayName string `json:"display_name"`
			ID          string `json:"id"`
			ORCID       string `json:"orcid"`
		} `json:"author"`
	} `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Keywords              []struct {
		DisplayName string `json:"display_name"`
	} `json:"keywords"`
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
	Meta    struct {
		NextCursor string `json:"next_cursor"`
	} `json:"meta"`
}

// fetchOpenAlex pages through OpenAlex's /works endpoint for query,
// batchSize results per page, converting each hit into an AcademicItem.
// It is re-invocable — a fresh http.Client and cursor each call — the
// way the importer's Source contract requires (spec §6).
func fetchOpenAlex(ctx context.Context, query string, batchSize int, conf openAlexConf) ([]*model.AcademicItem, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	client := &http.Client{Timeout: 30 * time.Second}

	var items []*model.AcademicItem
	cursor := "*"
	for cursor != "" {
		u := &url.URL{Scheme: "https", Host: "api.openalex.org", Path: "/works"}
		q := u.Query()
		q.Set("search", query)
		q.Set("per-page", fmt.Sprintf("%d", batchSize))
		q.Set("cursor", cursor)
		if conf.Email != "" {
			q.Set("mailto", conf.Email)
		}
		if conf.APIKey != "" {
			q.Set("api_key", conf.APIKey)
		}
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("openalex: %w", err)
		}
		var body openAlexResponse
		err = func() error {
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("openalex: unexpected status %s", resp.Status)
			}
			return json.NewDecoder(resp.Body).Decode(&body)
		}()
		if err != nil {
			return nil, err
		}

		for _, w := range body.Results {
			items = append(items, toAcademicItem(w))
		}
		if len(body.Results) == 0 {
			break
		}
		cursor = body.Meta.NextCursor
	}
	return items, nil
}

func toAcademicItem(w openAlexWork) *model.AcademicItem {
	item := &model.AcademicItem{
		Title: w.Title,
		Meta:  map[string]any{},
	}
	if w.DOI != "" {
		doi := strings.TrimPrefix(w.DOI, "https://doi.org/")
		item.DOI = &doi
	}
	if id := strings.TrimPrefix(w.ID, "https://openalex.org/"); id != "" {
		item.OpenAlexID = &id
	}
	if w.PublicationYear != 0 {
		year := w.PublicationYear
		item.PublicationYear = &year
	}
	if w.PrimaryLocation.Source.DisplayName != "" {
		source := w.PrimaryLocation.Source.DisplayName
		item.Source = &source
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName == "" {
			continue
		}
		author := model.AcademicAuthor{Name: a.Author.DisplayName}
		if a.Author.ID != "" {
			oaID := strings.TrimPrefix(a.Author.ID, "https://openalex.org/")
			author.OpenAlexID = &oaID
		}
		if a.Author.ORCID != "" {
			orcid := a.Author.ORCID
			author.ORCID = &orcid
		}
		item.Authors = append(item.Authors, author)
	}
	for _, k := range w.Keywords {
		if k.DisplayName != "" {
			item.Keywords = append(item.Keywords, k.DisplayName)
		}
	}
	if abstract := reconstructAbstract(w.AbstractInvertedIndex); abstract != "" {
		item.Meta["abstract"] = abstract
	}
	item.RefreshTitleSlug()
	return item
}

// reconstructAbstract undoes OpenAlex's inverted-index abstract
// encoding (word -> token positions) back into plain text, since the
// rest of this module (dedupe, nql's AbstractFilter) works on plain text.
func reconstructAbstract(inverted map[string][]int) string {
	if len(inverted) == 0 {
		return ""
	}
	maxPos := 0
	for _, positions := range inverted {
		for _, p := range positions {
			if p > maxPos {
				maxPos = p
			}
		}
	}
	words := make([]string, maxPos+1)
	for word, positions := range inverted {
		for _, p := range positions {
			words[p] = word
		}
	}
	return strings.Join(words, " ")
}
