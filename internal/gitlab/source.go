package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Source is one remote scope a refresh cycle draws pages from
type Source interface {
	// Name identifies the scope; stored as the namespace of observed rows.
	Name() string
	// Count returns the exact number of projects in the scope.
	Count(ctx context.Context) (int, error)
	// FetchPage returns one page of projects. An out-of-range page yields an
	// empty slice, not an error.
	FetchPage(ctx context.Context, page, perPage int) ([]ProjectRecord, error)
}

// ProjectRecord is one project as reported by the GitLab API
type ProjectRecord struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Path           string     `json:"path"`
	FullPath       string     `json:"path_with_namespace"`
	WebURL         string     `json:"web_url"`
	Description    *string    `json:"description"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}

// GroupSource lists the projects of one group hierarchy
type GroupSource struct {
	client *Client
	group  string
}

// NewGroupSource creates a source for the given group full path or ID
func NewGroupSource(client *Client, group string) *GroupSource {
	return &GroupSource{client: client, group: group}
}

// Name returns the group identifier
func (s *GroupSource) Name() string {
	return s.group
}

func (s *GroupSource) path() string {
	return "/api/v4/groups/" + url.PathEscape(s.group) + "/projects"
}

func (s *GroupSource) baseQuery() url.Values {
	q := url.Values{}
	q.Set("with_shared", "false")
	q.Set("include_subgroups", "true")
	q.Set("archived", "false")
	return q
}

// Count issues a dedicated total-count query against the group. It fails the
// whole operation when the count cannot be determined.
func (s *GroupSource) Count(ctx context.Context) (int, error) {
	q := s.baseQuery()
	q.Set("per_page", "1")
	q.Set("page", "1")

	_, header, err := s.client.get(ctx, s.path(), q)
	if err != nil {
		return 0, fmt.Errorf("group %s count failed: %w", s.group, err)
	}
	total, err := totalFromHeader(header)
	if err != nil {
		return 0, fmt.Errorf("group %s count failed: %w", s.group, err)
	}
	return total, nil
}

// FetchPage fetches one page of group projects
func (s *GroupSource) FetchPage(ctx context.Context, page, perPage int) ([]ProjectRecord, error) {
	q := s.baseQuery()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	body, _, err := s.client.get(ctx, s.path(), q)
	if err != nil {
		return nil, fmt.Errorf("group %s page %d failed: %w", s.group, page, err)
	}
	return decodeProjects(body)
}

// MembershipName is the scope label used when no groups are configured
const MembershipName = "membership"

// MembershipSource lists every project the token holder is a member of.
// Used when no explicit group scopes are configured.
type MembershipSource struct {
	client *Client
}

// NewMembershipSource creates a membership-scoped source
func NewMembershipSource(client *Client) *MembershipSource {
	return &MembershipSource{client: client}
}

// Name returns the membership scope label
func (s *MembershipSource) Name() string {
	return MembershipName
}

func (s *MembershipSource) baseQuery() url.Values {
	q := url.Values{}
	q.Set("membership", "true")
	q.Set("archived", "false")
	q.Set("simple", "true")
	return q
}

// Count reads the total from the result metadata of the listing call's
// first page
func (s *MembershipSource) Count(ctx context.Context) (int, error) {
	q := s.baseQuery()
	q.Set("per_page", "1")
	q.Set("page", "1")

	_, header, err := s.client.get(ctx, "/api/v4/projects", q)
	if err != nil {
		return 0, fmt.Errorf("membership count failed: %w", err)
	}
	total, err := totalFromHeader(header)
	if err != nil {
		return 0, fmt.Errorf("membership count failed: %w", err)
	}
	return total, nil
}

// FetchPage fetches one page of member projects
func (s *MembershipSource) FetchPage(ctx context.Context, page, perPage int) ([]ProjectRecord, error) {
	q := s.baseQuery()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	body, _, err := s.client.get(ctx, "/api/v4/projects", q)
	if err != nil {
		return nil, fmt.Errorf("membership page %d failed: %w", page, err)
	}
	return decodeProjects(body)
}

func decodeProjects(body []byte) ([]ProjectRecord, error) {
	var records []ProjectRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse project list: %w", err)
	}
	return records, nil
}

// Sources builds the ordered scope list for a refresh cycle: one source per
// configured group, or the single membership source when none are configured
func Sources(client *Client, groups []string) []Source {
	if len(groups) == 0 {
		return []Source{NewMembershipSource(client)}
	}
	sources := make([]Source, 0, len(groups))
	for _, group := range groups {
		sources = append(sources, NewGroupSource(client, group))
	}
	return sources
}
