package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/eventdesk/eventdesk-client/internal/domain"
)

// Index wraps a Bleve index of cached events.
//
// Thread safety: All public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// IndexOptions configures the cache index.
type IndexOptions struct {
	// Path is the directory for index storage. Empty keeps the index in memory.
	Path   string
	Logger *slog.Logger
}

// mappingVersion is incremented whenever the index mapping changes.
// A persisted index with another version is rebuilt on open.
const mappingVersion = "1"

// NewIndex creates or opens the cache index.
// An existing on-disk index that is unreadable or has an outdated mapping is
// removed and recreated; the store repopulates it on the next load.
func NewIndex(opts IndexOptions) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return &Index{index: index, logger: logger}, nil
	}

	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	indexPath := filepath.Join(opts.Path, "events.bleve")
	versionPath := filepath.Join(opts.Path, "events.version")

	var index bleve.Index
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("cache index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		var err error
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write index version file", "error", writeErr)
		}
		logger.Info("created new cache index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing cache index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// ReplaceOrganized swaps the organized view for events.
func (s *Index) ReplaceOrganized(ctx context.Context, events []domain.Event) error {
	docs := make([]*Document, len(events))
	for i, e := range events {
		docs[i] = OrganizedDocument(e)
	}
	return s.replace(ctx, ViewOrganized, docs)
}

// ReplaceInvited swaps the invited view for events.
func (s *Index) ReplaceInvited(ctx context.Context, events []domain.InvitedEvent) error {
	docs := make([]*Document, len(events))
	for i, e := range events {
		docs[i] = InvitedDocument(e)
	}
	return s.replace(ctx, ViewInvited, docs)
}

// IndexOrganized adds or updates one organized event.
func (s *Index) IndexOrganized(_ context.Context, event domain.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := OrganizedDocument(event)
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteOrganized removes one organized event.
func (s *Index) DeleteOrganized(_ context.Context, eventID domain.ID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(docID(ViewOrganized, eventID))
}

// replace deletes every document of view and indexes docs in one batch.
func (s *Index) replace(ctx context.Context, view View, docs []*Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.idsLocked(ctx, viewQuery(view))
	if err != nil {
		return fmt.Errorf("list %s documents: %w", view, err)
	}

	batch := s.index.NewBatch()
	for _, id := range existing {
		batch.Delete(id)
	}
	// Deletes first: a later Index of the same ID wins within a batch.
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("commit %s batch: %w", view, err)
	}
	s.logger.Debug("cache index replaced", "view", view, "removed", len(existing), "indexed", len(docs))
	return nil
}

// Match returns the IDs of cached events in view that satisfy criteria.
// UserStatus and Role apply to the invited view only.
func (s *Index) Match(ctx context.Context, view View, criteria domain.SearchCriteria) ([]domain.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docIDs, err := s.idsLocked(ctx, buildFilterQuery(view, criteria.Normalized()))
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	prefix := string(view) + ":"
	ids := make([]domain.ID, 0, len(docIDs))
	for _, id := range docIDs {
		ids = append(ids, domain.ID(strings.TrimPrefix(id, prefix)))
	}
	return ids, nil
}

// idsLocked runs q and returns every matching document ID.
func (s *Index) idsLocked(ctx context.Context, q query.Query) ([]string, error) {
	count, err := s.index.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(q, int(count), 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func viewQuery(view View) query.Query {
	q := bleve.NewTermQuery(string(view))
	q.SetField("view")
	return q
}

func termQuery(field, value string) query.Query {
	q := bleve.NewTermQuery(fold(value))
	q.SetField(field)
	return q
}

// buildFilterQuery constructs the Bleve query for a cached filter.
func buildFilterQuery(view View, c domain.SearchCriteria) query.Query {
	queries := []query.Query{viewQuery(view)}

	if c.Keyword != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(c.Keyword)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		locationMatch := bleve.NewMatchQuery(c.Keyword)
		locationMatch.SetField("location")
		locationMatch.SetBoost(1.5)
		textQueries = append(textQueries, locationMatch)

		descMatch := bleve.NewMatchQuery(c.Keyword)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		// Typo tolerance on the title
		fuzzyQuery := bleve.NewFuzzyQuery(fold(c.Keyword))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix queries for search-as-you-type
		if utf8.RuneCountInString(c.Keyword) >= 2 {
			for _, field := range []string{"title", "location"} {
				prefixQuery := bleve.NewPrefixQuery(fold(c.Keyword))
				prefixQuery.SetField(field)
				prefixQuery.SetBoost(0.5)
				textQueries = append(textQueries, prefixQuery)
			}
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if c.Date != "" {
		queries = append(queries, termQuery("date", c.Date))
	}
	if c.EventStatus != "" {
		queries = append(queries, termQuery("event_status", string(c.EventStatus)))
	}
	if view == ViewInvited {
		if c.UserStatus != "" {
			queries = append(queries, termQuery("user_status", string(c.UserStatus)))
		}
		if c.Role != "" {
			queries = append(queries, termQuery("role", c.Role))
		}
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
